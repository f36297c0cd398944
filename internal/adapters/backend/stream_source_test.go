package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEndpoints = map[domain.Mode]string{
	domain.ModeFast:      "/api/ask",
	domain.ModeWebSearch: "/api/search",
	domain.ModeDeep:      "/api/deep-research",
}

func TestStreamSourceOpenPostsQuestionToModeEndpoint(t *testing.T) {
	t.Parallel()

	for mode, path := range testEndpoints {
		mode, path := mode, path
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, path, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
				assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
				assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]string{"question": "what is go?"}, body)

				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = fmt.Fprint(w, "data: [DONE]\n")
			}))
			defer server.Close()

			source := NewStreamSource(server.URL+"/", testEndpoints, server.Client(), nil)
			body, err := source.Open(context.Background(), ports.StreamRequest{
				RequestID: "req-1",
				Question:  "what is go?",
				Mode:      mode,
				Token:     "token-123",
			})
			require.NoError(t, err)
			defer body.Close()

			data, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, "data: [DONE]\n", string(data))
		})
	}
}

func TestStreamSourceOpenMapsUnauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"detail":"Not authenticated"}`)
	}))
	defer server.Close()

	source := NewStreamSource(server.URL, testEndpoints, server.Client(), nil)
	_, err := source.Open(context.Background(), ports.StreamRequest{Question: "q", Mode: domain.ModeFast})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "Not authenticated")
}

func TestStreamSourceOpenReturnsStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewStreamSource(server.URL, testEndpoints, server.Client(), nil)
	_, err := source.Open(context.Background(), ports.StreamRequest{Question: "q", Mode: domain.ModeDeep})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "status 502")
}

func TestStreamSourceEndpointRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	source := NewStreamSource("http://localhost:8000", testEndpoints, nil, nil)

	endpoint, err := source.Endpoint(domain.ModeWebSearch)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/search", endpoint)

	_, err = source.Endpoint(domain.Mode("turbo"))
	assert.ErrorIs(t, err, domain.ErrUnknownMode)
}
