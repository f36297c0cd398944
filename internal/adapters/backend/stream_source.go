package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
	"go.uber.org/zap"
)

const (
	maxErrorBodyBytes = 64 << 10
	userAgent         = "px/stream"
)

type questionPayload struct {
	Question string `json:"question"`
}

// StreamSource posts questions to the endpoint of their mode and hands back
// the event-stream body.
type StreamSource struct {
	baseURL   string
	endpoints map[domain.Mode]string
	client    *http.Client
	logger    *zap.Logger
}

var _ ports.StreamSource = (*StreamSource)(nil)

func NewStreamSource(baseURL string, endpoints map[domain.Mode]string, client *http.Client, logger *zap.Logger) *StreamSource {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StreamSource{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    client,
		logger:    logger.Named("backend"),
	}
}

// Endpoint returns the absolute URL serving mode.
func (s *StreamSource) Endpoint(mode domain.Mode) (string, error) {
	path, ok := s.endpoints[mode]
	if !ok || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w %q", domain.ErrUnknownMode, mode)
	}

	return s.baseURL + "/" + strings.TrimLeft(path, "/"), nil
}

func (s *StreamSource) Open(ctx context.Context, req ports.StreamRequest) (io.ReadCloser, error) {
	endpoint, err := s.Endpoint(req.Mode)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(questionPayload{Question: req.Question})
	if err != nil {
		return nil, fmt.Errorf("encode question: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")
	request.Header.Set("Cache-Control", "no-cache")
	request.Header.Set("User-Agent", userAgent)
	if req.Token != "" {
		request.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.RequestID != "" {
		request.Header.Set("X-Request-ID", req.RequestID)
	}

	s.logger.Debug("open answer stream",
		zap.String("request_id", req.RequestID),
		zap.String("mode", string(req.Mode)),
		zap.String("endpoint", endpoint),
	)

	response, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()

		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		message := strings.TrimSpace(string(detail))
		if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUnauthorized, response.StatusCode, message)
		}

		return nil, fmt.Errorf("status %d: %s", response.StatusCode, message)
	}

	return response.Body, nil
}
