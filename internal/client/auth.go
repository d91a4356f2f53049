package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (models.Credential, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.Credential{}, fmt.Errorf("login: %w: email and password are required", ErrValidation)
	}

	body, err := jsonBody(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return models.Credential{}, err
	}

	cred, err := c.authenticate(ctx, "/api/auth/login", body)
	if err != nil {
		return models.Credential{}, fmt.Errorf("login: %w", err)
	}
	return cred, nil
}

// Register creates an account and returns its credential.
func (c *Client) Register(ctx context.Context, email, password, name string) (models.Credential, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return models.Credential{}, fmt.Errorf("register: %w: email, password and name are required", ErrValidation)
	}

	body, err := jsonBody(map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return models.Credential{}, err
	}

	cred, err := c.authenticate(ctx, "/api/auth/register", body)
	if err != nil {
		return models.Credential{}, fmt.Errorf("register: %w", err)
	}
	return cred, nil
}

func (c *Client) authenticate(ctx context.Context, path string, body io.Reader) (models.Credential, error) {
	var resp authResponse
	err := c.do(ctx, request{
		op:          metrics.OpAuth,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, &resp)
	if err != nil {
		return models.Credential{}, err
	}

	if resp.AccessToken == nil || *resp.AccessToken == "" {
		return models.Credential{}, malformed(metrics.OpAuth, "missing access_token")
	}
	if resp.User == nil {
		return models.Credential{}, malformed(metrics.OpAuth, "missing user")
	}
	return models.Credential{
		Token: *resp.AccessToken,
		User:  resp.User.model(),
	}, nil
}

// VerifyToken asks the backend whether token is still accepted.
// A rejected token returns false with a nil error.
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	var resp struct {
		UserID string `json:"user_id"`
		Valid  bool   `json:"valid"`
	}
	err := c.do(ctx, request{
		op:     metrics.OpAuth,
		method: http.MethodGet,
		path:   "/api/auth/verify",
		query:  url.Values{"token": {token}},
	}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			return false, nil
		}
		return false, fmt.Errorf("verify token: %w", err)
	}
	return resp.Valid, nil
}
