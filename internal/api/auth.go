package api

import (
	"context"
	"encoding/json"
	"net/http"

	"forkful/internal/domain"
)

// AuthResult is what login and registration return.
type AuthResult struct {
	User   domain.User
	Tokens domain.TokenPair
}

// authPayload accepts both {"user", "tokens": {"access", "refresh"}} and a
// flat {"user", "access", "refresh"} response.
type authPayload struct {
	User    domain.User       `json:"user"`
	Tokens  *domain.TokenPair `json:"tokens"`
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
}

func (p authPayload) result() AuthResult {
	out := AuthResult{User: p.User, Tokens: domain.TokenPair{Access: p.Access, Refresh: p.Refresh}}
	if p.Tokens != nil && p.Tokens.Access != "" {
		out.Tokens = *p.Tokens
	}
	return out
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResult, error) {
	req := call{method: http.MethodPost, path: path, body: body, anonymous: true}
	var payload authPayload
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	result := payload.result()
	if result.Tokens.Access == "" {
		return nil, &Error{Kind: KindDecode, Status: http.StatusOK, Method: req.method, Path: path, Message: "response carried no access token"}
	}
	return &result, nil
}

// Login exchanges credentials for a token pair. It never sends a bearer.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/auth/login/", req)
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/auth/register/", req)
}

func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.get(ctx, "/auth/profile/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	var user domain.User
	if err := c.send(ctx, http.MethodPatch, "/auth/profile/", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword returns the server's confirmation message, if any.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	if err := validate(&req); err != nil {
		return "", err
	}
	var raw json.RawMessage
	if err := c.send(ctx, http.MethodPost, "/auth/change-password/", req, &raw); err != nil {
		return "", err
	}
	return serverMessage(raw), nil
}
