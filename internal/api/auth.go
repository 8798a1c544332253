package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// LoginResponse is the body of POST /auth/login/.
type LoginResponse struct {
	Message string        `json:"message"`
	Tokens  domain.Tokens `json:"tokens"`
	Data    domain.User   `json:"data"`
}

// Login exchanges credentials for bearer tokens and the user profile.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, request{
		op:       "api.auth.login",
		endpoint: "auth_login",
		method:   http.MethodPost,
		path:     "/auth/login/",
		body:     creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Tokens.Access == "" {
		return nil, domain.Unauthorized("api.auth.login", "Login response did not include an access token")
	}
	return &out, nil
}

// Register creates an account. The account must be verified by email
// before it can log in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.Envelope[domain.User], error) {
	var out domain.Envelope[domain.User]
	err := c.do(ctx, request{
		op:       "api.auth.register",
		endpoint: "auth_register",
		method:   http.MethodPost,
		path:     "/auth/register/",
		body:     reg,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var out domain.Envelope[domain.User]
	err := c.do(ctx, request{
		op:       "api.auth.user",
		endpoint: "auth_user",
		method:   http.MethodGet,
		path:     "/auth/user/",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}
