package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/weatherchat/internal/errors"
	"github.com/diogo/weatherchat/internal/models"
)

// DefaultTransportTimeout bounds a single HTTP exchange at the transport level
const DefaultTransportTimeout = 300 * time.Second

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 1 << 20

// HTTPGateway posts queries as JSON to the backend's chat route
type HTTPGateway struct {
	httpClient       tls_client.HttpClient
	endpoint         string
	transportTimeout time.Duration
	logger           zerolog.Logger
}

// HTTPOption configures an HTTPGateway
type HTTPOption func(*HTTPGateway)

// WithHTTPClient replaces the underlying tls-client (used by tests)
func WithHTTPClient(client tls_client.HttpClient) HTTPOption {
	return func(g *HTTPGateway) {
		g.httpClient = client
	}
}

// WithTransportTimeout sets the transport-level ceiling for one exchange
func WithTransportTimeout(d time.Duration) HTTPOption {
	return func(g *HTTPGateway) {
		g.transportTimeout = d
	}
}

// WithHTTPLogger sets the logger used for request diagnostics
func WithHTTPLogger(logger zerolog.Logger) HTTPOption {
	return func(g *HTTPGateway) {
		g.logger = logger
	}
}

// NewHTTPGateway creates a gateway for an http(s) endpoint such as http://localhost:8001
func NewHTTPGateway(endpoint string, opts ...HTTPOption) (*HTTPGateway, error) {
	base, err := normalizeEndpoint(endpoint, "http", "https")
	if err != nil {
		return nil, err
	}

	g := &HTTPGateway{
		endpoint:         base,
		transportTimeout: DefaultTransportTimeout,
		logger:           zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(g.transportTimeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		g.httpClient = httpClient
	}

	return g, nil
}

// Endpoint returns the normalized base URL
func (g *HTTPGateway) Endpoint() string {
	return g.endpoint
}

// Ask posts {"text": query} to /chat and returns the "response" field
func (g *HTTPGateway) Ask(ctx context.Context, query string) (string, error) {
	target := g.endpoint + models.RouteChat
	requestID := RequestIDFromContext(ctx)
	log := g.logger.With().Str("request_id", requestID).Str("endpoint", target).Logger()

	payload, err := json.Marshal(map[string]string{models.FieldQuery: query})
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	log.Debug().Int("query_len", len(query)).Msg("sending query")

	body, err := g.do(ctx, req, target, "ask")
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("query failed")
		return "", err
	}

	answer, err := parseAnswer(body)
	if err != nil {
		log.Warn().Err(err).Msg("malformed answer")
		return "", err
	}

	log.Debug().Dur("elapsed", time.Since(start)).Int("answer_len", len(answer)).Msg("query answered")
	return answer, nil
}

// Ping calls the backend's root route and returns its "message" field
func (g *HTTPGateway) Ping(ctx context.Context) (string, error) {
	target := g.endpoint + models.RouteRoot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, RequestIDFromContext(ctx))

	body, err := g.do(ctx, req, target, "ping")
	if err != nil {
		return "", err
	}

	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("liveness reply is not valid JSON", "")
	}
	msg := gjson.GetBytes(body, models.FieldMessage)
	if !msg.Exists() {
		return "", apierrors.NewParseError("liveness reply has no message", models.FieldMessage)
	}
	return msg.String(), nil
}

// do executes req and returns the body of a 2xx response
func (g *HTTPGateway) do(ctx context.Context, req *http.Request, target, operation string) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, operation, target, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, target, operation+" failed", string(errorBody))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(ctx, operation, target, err)
	}
	return body, nil
}

// parseAnswer extracts the answer string from a backend reply
func parseAnswer(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	answer := gjson.GetBytes(body, models.FieldAnswer)
	if !answer.Exists() {
		return "", apierrors.NewParseError("response has no answer field", models.FieldAnswer)
	}
	if answer.Type != gjson.String {
		return "", apierrors.NewParseError("answer field is not a string", models.FieldAnswer)
	}
	return answer.String(), nil
}

// classifyTransportError maps a failed exchange to a timeout or network error
func classifyTransportError(ctx context.Context, operation, target string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(operation, target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierrors.NewTimeoutError(operation, target)
	}
	return apierrors.NewNetworkError(operation, target, err)
}
