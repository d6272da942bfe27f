package client

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ApniDukan/internal/auth"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type ProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type Session struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (Session, error) {
	return c.signIn(ctx, request{method: http.MethodPost, path: "/auth/register", body: in})
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	return c.signIn(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	})
}

func (c *Client) signIn(ctx context.Context, req request) (Session, error) {
	s, err := decode[Session](c.write(ctx, req))
	if err != nil {
		return Session{}, err
	}
	if err := c.tokens.SetToken(s.Token); err != nil {
		return Session{}, err
	}
	c.Invalidate(FamilyOrders)
	return s, nil
}

// Logout notifies the server and clears the local token and cached orders whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.write(ctx, request{method: http.MethodPost, path: "/auth/logout", auth: true})
	if err != nil {
		c.log.Debug("remote logout failed", zap.Error(err))
	}

	c.Invalidate(FamilyOrders)
	if cerr := c.tokens.ClearToken(); cerr != nil {
		return cerr
	}
	return nil
}

func (c *Client) Me(ctx context.Context) (auth.User, error) {
	out, err := decode[struct {
		User auth.User `json:"user"`
	}](c.uncached(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}))
	return out.User, err
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (auth.User, error) {
	out, err := decode[struct {
		User auth.User `json:"user"`
	}](c.write(ctx, request{method: http.MethodPut, path: "/auth/profile", body: in, auth: true}))
	return out.User, err
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	_, err := c.write(ctx, request{
		method: http.MethodPut,
		path:   "/auth/password",
		body:   map[string]string{"currentPassword": current, "newPassword": next},
		auth:   true,
	})
	return err
}
