// Package gateway implements clients for the weather backend's single
// request/response contract: a free-text query in, a free-text answer out.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Gateway sends one query to the backend and returns its answer.
// Any failure to obtain a usable answer is returned as an error.
type Gateway interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Func adapts an ordinary function to the Gateway interface
type Func func(ctx context.Context, query string) (string, error)

// Ask calls f(ctx, query)
func (f Func) Ask(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// Transport names accepted by New
const (
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

// HeaderRequestID carries the per-query id to the backend
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx. Gateways send it to the backend.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID, or a fresh one
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// normalizeEndpoint validates a base URL and strips any trailing slash
func normalizeEndpoint(endpoint string, schemes ...string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	valid := false
	for _, s := range schemes {
		if u.Scheme == s {
			valid = true
			break
		}
	}
	if !valid {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be one of %s", endpoint, strings.Join(schemes, ", "))
	}

	return strings.TrimRight(endpoint, "/"), nil
}
