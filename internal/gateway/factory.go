package gateway

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the gateway for transport ("http" or "ws") and endpoint
func New(transport, endpoint string, logger zerolog.Logger) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "", TransportHTTP:
		return NewHTTPGateway(endpoint, WithHTTPLogger(logger))
	case TransportWebSocket, "websocket":
		return NewWSGateway(endpoint, WithWSLogger(logger))
	default:
		return nil, fmt.Errorf("unknown transport %q (expected %s or %s)", transport, TransportHTTP, TransportWebSocket)
	}
}
