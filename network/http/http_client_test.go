package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
			_, _ = w.Write(body)
		case "/error":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
		case "/large":
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
		}
	}))
	defer server.Close()

	client := NewClient(polyzero.NewLogger(), time.Second)
	defer client.CloseIdleConnections()

	tests := []struct {
		name             string
		method           string
		path             string
		body             string
		maxResponseBytes uint64
		expectedStatus   int
		expectedBody     string
		expectedErr      error
	}{
		{
			name:             "POST body is echoed back",
			method:           http.MethodPost,
			path:             "/echo",
			body:             `{"jsonrpc":"2.0","method":"eth_chainId","id":1}`,
			maxResponseBytes: 1024,
			expectedStatus:   http.StatusOK,
			expectedBody:     `{"jsonrpc":"2.0","method":"eth_chainId","id":1}`,
		},
		{
			name:             "body of exactly the limit is accepted",
			method:           http.MethodPost,
			path:             "/echo",
			body:             "abcd",
			maxResponseBytes: 4,
			expectedStatus:   http.StatusOK,
			expectedBody:     "abcd",
		},
		{
			name:             "non-2xx status is not an error",
			method:           http.MethodGet,
			path:             "/error",
			maxResponseBytes: 1024,
			expectedStatus:   http.StatusServiceUnavailable,
			expectedBody:     "unavailable",
		},
		{
			name:             "body over the limit is rejected",
			method:           http.MethodGet,
			path:             "/large",
			maxResponseBytes: 1024,
			expectedErr:      ErrResponseTooLarge,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			header := http.Header{}
			header.Set("Content-Type", "application/json")

			resp, err := client.Do(context.Background(), test.method, server.URL+test.path, header, []byte(test.body), test.maxResponseBytes)
			if test.expectedErr != nil {
				c.ErrorIs(err, test.expectedErr)
				return
			}

			c.NoError(err)
			c.Equal(test.expectedStatus, resp.StatusCode)
			c.Equal(test.expectedBody, string(resp.Body))
			if test.path == "/echo" {
				c.Equal(test.method, resp.Header.Get("X-Method"))
				c.Equal("application/json", resp.Header.Get("X-Content-Type"))
			}
		})
	}
}

func TestClient_Do_TransportErrors(t *testing.T) {
	c := require.New(t)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	client := NewClient(polyzero.NewLogger(), 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Do(ctx, http.MethodGet, slow.URL, nil, nil, 1024)
	c.ErrorIs(err, ErrRequestTimeout)

	_, err = client.Do(context.Background(), http.MethodGet, "not a url", nil, nil, 1024)
	c.ErrorIs(err, ErrConnection)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	_, err = client.Do(context.Background(), http.MethodGet, closedURL, nil, nil, 1024)
	c.ErrorIs(err, ErrConnection)
}
