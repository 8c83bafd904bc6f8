package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apierrors "github.com/diogo/weatherchat/internal/errors"
	"github.com/diogo/weatherchat/internal/models"
)

// WSGateway sends each query as one JSON frame over a fresh WebSocket
// connection and reads exactly one answer frame back.
type WSGateway struct {
	url    string
	dialer *websocket.Dialer
	logger zerolog.Logger
}

// WSOption configures a WSGateway
type WSOption func(*WSGateway)

// WithDialer replaces the default dialer
func WithDialer(d *websocket.Dialer) WSOption {
	return func(g *WSGateway) {
		g.dialer = d
	}
}

// WithWSLogger sets the logger used for request diagnostics
func WithWSLogger(logger zerolog.Logger) WSOption {
	return func(g *WSGateway) {
		g.logger = logger
	}
}

// NewWSGateway creates a gateway for an endpoint such as ws://localhost:8001.
// http(s) endpoints are rewritten to ws(s); the /ws route is appended.
func NewWSGateway(endpoint string, opts ...WSOption) (*WSGateway, error) {
	base, err := normalizeEndpoint(endpoint, "ws", "wss", "http", "https")
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	g := &WSGateway{
		url: base + models.RouteWebSocket,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// URL returns the WebSocket URL queries are sent to
func (g *WSGateway) URL() string {
	return g.url
}

// Ask writes {"text": query} and waits for a frame carrying "response"
func (g *WSGateway) Ask(ctx context.Context, query string) (string, error) {
	requestID := RequestIDFromContext(ctx)
	log := g.logger.With().Str("request_id", requestID).Str("endpoint", g.url).Logger()

	header := http.Header{}
	header.Set(HeaderRequestID, requestID)

	conn, resp, err := g.dialer.DialContext(ctx, g.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			err = apierrors.NewAPIError(resp.StatusCode, g.url, "websocket handshake rejected")
		} else {
			err = classifyWSError(ctx, g.url, err)
		}
		log.Warn().Err(err).Msg("dial failed")
		return "", err
	}
	defer func() { _ = conn.Close() }()

	// Unblock a pending read when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	log.Debug().Int("query_len", len(query)).Msg("sending query")
	if err := conn.WriteJSON(map[string]string{models.FieldQuery: query}); err != nil {
		err = classifyWSError(ctx, g.url, err)
		log.Warn().Err(err).Msg("write failed")
		return "", err
	}

	_, frame, err := conn.ReadMessage()
	if err != nil {
		err = classifyWSError(ctx, g.url, err)
		log.Warn().Err(err).Msg("read failed")
		return "", err
	}

	answer, err := parseAnswer(frame)
	if err != nil {
		log.Warn().Err(err).Msg("malformed answer")
		return "", err
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	log.Debug().Int("answer_len", len(answer)).Msg("query answered")
	return answer, nil
}

func classifyWSError(ctx context.Context, target string, err error) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apierrors.NewTimeoutError("ask", target)
		}
		return apierrors.NewNetworkError("ask", target, ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.NewTimeoutError("ask", target)
	}
	if websocket.IsUnexpectedCloseError(err) || errors.Is(err, websocket.ErrBadHandshake) {
		return apierrors.NewNetworkError("ask", target, fmt.Errorf("connection closed: %w", err))
	}
	return apierrors.NewNetworkError("ask", target, err)
}
