// Package auth signs users in and out against the records API.
package auth

import (
	"context"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/session"
	"github.com/contractor-desk/contractor-desk/internal/shared"
)

const (
	msgMissingFields = "Please fill out all fields."
	msgInvalidEmail  = "Please enter a valid email address."
	msgShortPassword = "Password must be at least 6 characters."

	minPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Service validates credentials locally, then exchanges them for a token and
// keeps it in the session store of the call's context.
type Service struct {
	conn     *backend.Conn
	validate *validator.Validate
}

// NewService constructs a Service on top of conn.
func NewService(conn *backend.Conn) *Service {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Service{conn: conn, validate: v}
}

// Login checks email and password, then signs in.
func (s *Service) Login(ctx context.Context, email, password string) (backend.AuthResult, error) {
	if err := s.validateLogin(email, password); err != nil {
		return backend.AuthResult{}, err
	}
	result, err := s.conn.Login(ctx, email, password)
	if err != nil {
		return backend.AuthResult{}, err
	}
	return result, s.persist(ctx, result)
}

// Register checks the sign-up fields, creates the account and signs in.
func (s *Service) Register(ctx context.Context, name, email, password string) (backend.AuthResult, error) {
	if err := s.validateRegister(name, email, password); err != nil {
		return backend.AuthResult{}, err
	}
	result, err := s.conn.Register(ctx, name, email, password)
	if err != nil {
		return backend.AuthResult{}, err
	}
	return result, s.persist(ctx, result)
}

// Logout forgets the stored token and user.
func (s *Service) Logout(ctx context.Context) error {
	store := s.conn.Store(ctx)
	if store == nil {
		return nil
	}
	return store.Clear()
}

// Current returns the signed-in user, if any.
func (s *Service) Current(ctx context.Context) (session.User, bool) {
	store := s.conn.Store(ctx)
	if !session.Authenticated(store) {
		return session.User{}, false
	}
	return store.User()
}

func (s *Service) persist(ctx context.Context, result backend.AuthResult) error {
	store := s.conn.Store(ctx)
	if store == nil {
		return shared.ErrSessionExpired
	}
	return store.Save(result.Token, result.User)
}

func (s *Service) validateLogin(email, password string) error {
	if err := s.require("email", email, "notblank"); err != nil {
		return err
	}
	if err := s.require("password", password, "required"); err != nil {
		return err
	}
	return checkEmail(email)
}

func (s *Service) validateRegister(name, email, password string) error {
	if err := s.require("name", name, "notblank"); err != nil {
		return err
	}
	if err := s.validateLogin(email, password); err != nil {
		return err
	}
	if s.validate.Var(password, "min="+strconv.Itoa(minPasswordLength)) != nil {
		return &shared.ValidationError{Field: "password", Message: msgShortPassword}
	}
	return nil
}

func (s *Service) require(field, value, tag string) error {
	if s.validate.Var(value, tag) != nil {
		return &shared.ValidationError{Field: field, Message: msgMissingFields}
	}
	return nil
}

func checkEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &shared.ValidationError{Field: "email", Message: msgInvalidEmail}
	}
	return nil
}
