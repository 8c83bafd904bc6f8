package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/diogo/weatherchat/internal/errors"
)

// newWSBackend starts a server whose /ws route runs handle for each connection
func newWSBackend(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		handle(conn, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWSGateway_URL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://localhost:8001", "ws://localhost:8001/ws"},
		{"https://weather.example.com/", "wss://weather.example.com/ws"},
		{"ws://localhost:9000", "ws://localhost:9000/ws"},
		{"wss://secure.example.com", "wss://secure.example.com/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			g, err := NewWSGateway(tt.endpoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.URL())
		})
	}

	_, err := NewWSGateway("ftp://example.com")
	assert.Error(t, err)
}

func TestWSGateway_Ask_Success(t *testing.T) {
	var gotRequestID string
	srv := newWSBackend(t, func(conn *websocket.Conn, r *http.Request) {
		gotRequestID = r.Header.Get(HeaderRequestID)
		var in map[string]string
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]string{"response": "echo: " + in["text"]})
	})

	g, err := NewWSGateway(srv.URL)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "ws-req-1")
	answer, err := g.Ask(ctx, "Weather in Dubai today")
	require.NoError(t, err)
	assert.Equal(t, "echo: Weather in Dubai today", answer)
	assert.Equal(t, "ws-req-1", gotRequestID)
}

func TestWSGateway_Ask_MalformedFrame(t *testing.T) {
	srv := newWSBackend(t, func(conn *websocket.Conn, r *http.Request) {
		_, _, _ = conn.ReadMessage()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"result":"x"}`))
	})

	g, err := NewWSGateway(srv.URL)
	require.NoError(t, err)

	_, err = g.Ask(context.Background(), "Tokyo?")
	require.Error(t, err)
	assert.True(t, apierrors.IsParseError(err))
}

func TestWSGateway_Ask_ServerClosesWithoutAnswer(t *testing.T) {
	srv := newWSBackend(t, func(conn *websocket.Conn, r *http.Request) {
		_, _, _ = conn.ReadMessage()
	})

	g, err := NewWSGateway(srv.URL)
	require.NoError(t, err)

	_, err = g.Ask(context.Background(), "Tokyo?")
	require.Error(t, err)
	assert.True(t, apierrors.IsNetworkError(err))
}

func TestWSGateway_Ask_HandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	g, err := NewWSGateway(srv.URL)
	require.NoError(t, err)

	_, err = g.Ask(context.Background(), "Tokyo?")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierrors.GetHTTPStatus(err))
}

func TestWSGateway_Ask_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g, err := NewWSGateway(url)
	require.NoError(t, err)

	_, err = g.Ask(context.Background(), "Tokyo?")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrBackendUnavailable)
}

func TestWSGateway_Ask_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newWSBackend(t, func(conn *websocket.Conn, r *http.Request) {
		_, _, _ = conn.ReadMessage()
		<-release
	})
	defer close(release)

	g, err := NewWSGateway(strings.Replace(srv.URL, "http://", "ws://", 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = g.Ask(ctx, "slow")
	require.Error(t, err)
	assert.True(t, apierrors.IsTimeoutError(err))
}
