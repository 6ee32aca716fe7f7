package auth

import (
	"context"
	"errors"
	"time"

	"github.com/autonotions/autonotions/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password does not meet the requirements")
)

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// Session is an authenticated session. AccessToken is empty when the provider
// requires an email confirmation before the first sign-in.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        models.User
}

// Provider is the auth API consumed by the service.
type Provider interface {
	SignUp(ctx context.Context, in SignUpInput) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	VerifyPassword(ctx context.Context, user *models.User, password string) error
	ChangePassword(ctx context.Context, accessToken string, user *models.User, newPassword string) error
}
