package appveyor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyTransport fails the first failures round trips with a transport
// error, then delegates.
type flakyTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func newTestClient(srv *httptest.Server, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL:        srv.URL,
		token:          "abc123",
		httpClient:     &http.Client{Transport: transport},
		downloadClient: &http.Client{Transport: transport},
		logger:         zerolog.Nop(),
	}
}

func TestQueryAPISendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"project":"test"}`))
	}))
	defer srv.Close()

	var reply struct {
		Project string `json:"project"`
	}
	err := newTestClient(srv, nil).queryAPI(context.Background(), "/projects/team/app", &reply)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, "test", reply.Project)
}

func TestQueryAPIRetriesTransportFailures(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "no failures", failures: 0, wantCalls: 1},
		{name: "one failure then success", failures: 1, wantCalls: 2},
		{name: "two failures then success", failures: 2, wantCalls: 3},
		{name: "three failures exhausts budget", failures: 3, wantErr: true, wantCalls: 3},
		{name: "permanent failure", failures: 100, wantErr: true, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			ft := &flakyTransport{failures: tt.failures, next: http.DefaultTransport}
			var reply map[string]any
			err := newTestClient(srv, ft).queryAPI(context.Background(), "/x", &reply)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAPI)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, ft.calls)
		})
	}
}

func TestQueryAPIDoesNotRetryHTTPErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var reply map[string]any
	err := newTestClient(srv, nil).queryAPI(context.Background(), "/x", &reply)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Equal(t, 1, calls, "HTTP error statuses must not be retried")
}

func TestQueryAPIMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	var reply map[string]any
	err := newTestClient(srv, nil).queryAPI(context.Background(), "/x", &reply)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestQueryAPIToleratesInvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// "caf\xe9" is latin-1, not valid UTF-8.
		w.Write([]byte("{\"message\":\"caf\xe9\"}"))
	}))
	defer srv.Close()

	var reply struct {
		Message string `json:"message"`
	}
	err := newTestClient(srv, nil).queryAPI(context.Background(), "/x", &reply)
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "caf")
}

func TestCurlEquivalentRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(srv, nil)
	curl := c.curlEquivalent(srv.URL + "/projects/team/app")
	assert.NotContains(t, curl, "abc123")
	assert.Contains(t, curl, "******")
}

func TestDownloadStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("artifact payload"))
	}))
	defer srv.Close()

	c := newTestClient(srv, nil)
	body, err := c.Download(context.Background(), srv.URL+"/buildjobs/j1/artifacts/a.bin")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "artifact payload", string(data))
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(srv, nil)
	_, err := c.Download(context.Background(), srv.URL+"/buildjobs/j1/artifacts/a.bin")
	assert.ErrorIs(t, err, ErrAPI)
}
