package backend

import (
	"context"
	"net/http"

	"github.com/contractor-desk/contractor-desk/internal/session"
	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// AuthResult is the backend answer to login and register.
type AuthResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
func (c *Conn) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, "login", loginRequest{Email: email, Password: password})
}

// Register creates an account and signs it in.
func (c *Conn) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, "register", registerRequest{Name: name, Email: email, Password: password})
}

func (c *Conn) authenticate(ctx context.Context, op string, body any) (AuthResult, error) {
	raw, err := c.do(ctx, call{resource: "auth", op: op, method: http.MethodPost, path: "/auth/" + op, body: body, anonymous: true})
	if err != nil {
		return AuthResult{}, err
	}
	result, err := decodeOne[AuthResult](raw)
	if err != nil || result.Token == "" {
		return AuthResult{}, &shared.AuthError{Status: http.StatusOK, Message: "authentication response carried no token"}
	}
	return result, nil
}
