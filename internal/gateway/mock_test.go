package gateway

import (
	"io"
	"net/url"
	"strings"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
)

// mockHTTPClient is a tls_client.HttpClient that records requests and
// answers them with a canned response or error
type mockHTTPClient struct {
	mu         sync.Mutex
	statusCode int
	body       string
	err        error
	requests   []*fhttp.Request
	bodies     []string
}

func newMockHTTPClient(body string, statusCode int) *mockHTTPClient {
	return &mockHTTPClient{body: body, statusCode: statusCode}
}

func newMockHTTPClientWithError(err error) *mockHTTPClient {
	return &mockHTTPClient{err: err}
}

func (m *mockHTTPClient) lastRequest() (*fhttp.Request, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil, ""
	}
	return m.requests[len(m.requests)-1], m.bodies[len(m.bodies)-1]
}

// Do implements the tls_client.HttpClient interface
func (m *mockHTTPClient) Do(req *fhttp.Request) (*fhttp.Response, error) {
	var sent string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		sent = string(data)
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, sent)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &fhttp.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(strings.NewReader(m.body)),
		Header:     make(fhttp.Header),
	}, nil
}

// GetCookies implements the tls_client.HttpClient interface
func (m *mockHTTPClient) GetCookies(u *url.URL) []*fhttp.Cookie {
	return nil
}

// SetCookies implements the tls_client.HttpClient interface
func (m *mockHTTPClient) SetCookies(u *url.URL, cookies []*fhttp.Cookie) {}

// SetCookieJar implements the tls_client.HttpClient interface
func (m *mockHTTPClient) SetCookieJar(jar fhttp.CookieJar) {}

// GetCookieJar implements the tls_client.HttpClient interface
func (m *mockHTTPClient) GetCookieJar() fhttp.CookieJar {
	return nil
}

// SetProxy implements the tls_client.HttpClient interface
func (m *mockHTTPClient) SetProxy(proxyUrl string) error {
	return nil
}

// GetProxy implements the tls_client.HttpClient interface
func (m *mockHTTPClient) GetProxy() string {
	return ""
}

// SetFollowRedirect implements the tls_client.HttpClient interface
func (m *mockHTTPClient) SetFollowRedirect(followRedirect bool) {}

// GetFollowRedirect implements the tls_client.HttpClient interface
func (m *mockHTTPClient) GetFollowRedirect() bool {
	return false
}

// CloseIdleConnections implements the tls_client.HttpClient interface
func (m *mockHTTPClient) CloseIdleConnections() {}

// Get implements the tls_client.HttpClient interface
func (m *mockHTTPClient) Get(url string) (*fhttp.Response, error) {
	req, _ := fhttp.NewRequest(fhttp.MethodGet, url, nil)
	return m.Do(req)
}

// Head implements the tls_client.HttpClient interface
func (m *mockHTTPClient) Head(url string) (*fhttp.Response, error) {
	req, _ := fhttp.NewRequest(fhttp.MethodHead, url, nil)
	return m.Do(req)
}

// Post implements the tls_client.HttpClient interface
func (m *mockHTTPClient) Post(url, contentType string, body io.Reader) (*fhttp.Response, error) {
	req, _ := fhttp.NewRequest(fhttp.MethodPost, url, body)
	return m.Do(req)
}

// GetBandwidthTracker implements the tls_client.HttpClient interface
func (m *mockHTTPClient) GetBandwidthTracker() bandwidth.BandwidthTracker {
	return nil
}
