package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/px-cli/internal/domain"
	"github.com/bnema/px-cli/internal/ports"
)

const maxAuthResponseBytes = 1 << 20

var ErrInvalidCredentials = errors.New("invalid credentials")

type API struct {
	BaseURL      string
	LoginPath    string
	RegisterPath string
}

// PasswordFlow exchanges an email and password for a bearer token.
type PasswordFlow struct {
	API        API
	HTTPClient *http.Client
	Now        func() time.Time
}

var _ ports.AuthBackend = (*PasswordFlow)(nil)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (f *PasswordFlow) Login(ctx context.Context, creds domain.Credentials) (domain.LoginSession, error) {
	if err := validateCredentials(creds); err != nil {
		return domain.LoginSession{}, err
	}

	var tokens tokenResponse
	if err := f.post(ctx, f.API.LoginPath, creds, &tokens); err != nil {
		return domain.LoginSession{}, fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return domain.LoginSession{}, errors.New("login: token response missing access_token")
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	return domain.LoginSession{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		Email:       strings.TrimSpace(creds.Email),
		ObtainedAt:  now().UTC(),
	}, nil
}

func (f *PasswordFlow) Register(ctx context.Context, creds domain.Credentials) (domain.RegisteredUser, error) {
	if err := validateCredentials(creds); err != nil {
		return domain.RegisteredUser{}, err
	}

	var user domain.RegisteredUser
	if err := f.post(ctx, f.API.RegisterPath, creds, &user); err != nil {
		return domain.RegisteredUser{}, fmt.Errorf("register: %w", err)
	}

	return user, nil
}

func (f *PasswordFlow) post(ctx context.Context, path string, creds domain.Credentials, out any) error {
	if strings.TrimSpace(f.API.BaseURL) == "" {
		return errors.New("base url is required")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("endpoint path is required")
	}

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(credentialsPayload{
		Email:    strings.TrimSpace(creds.Email),
		Password: creds.Password,
	})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	endpoint := strings.TrimRight(f.API.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxAuthResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		detail := errorDetail(data)
		switch response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, detail)
		default:
			return fmt.Errorf("status %d: %s", response.StatusCode, detail)
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func validateCredentials(creds domain.Credentials) error {
	if strings.TrimSpace(creds.Email) == "" {
		return errors.New("email is required")
	}
	if creds.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func errorDetail(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}

	return strings.TrimSpace(string(body))
}
