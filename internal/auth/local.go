package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalProvider keeps bcrypt hashes in the users table and issues its own tokens.
type LocalProvider struct {
	cost int
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{cost: bcrypt.DefaultCost}
}

func (p *LocalProvider) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	email := NormalizeEmail(in.Email)

	if len(MissingPasswordRequirements(in.Password)) > 0 {
		return nil, ErrWeakPassword
	}

	var existing models.User
	err := db.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error

	if err == nil {
		return nil, ErrEmailTaken
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := db.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return issueSession(user)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var user models.User

	err := db.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := p.VerifyPassword(ctx, &user, password); err != nil {
		return nil, err
	}

	return issueSession(user)
}

// SignOut is a no-op: tokens are stateless and the cookie is cleared by the caller.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *LocalProvider) VerifyPassword(ctx context.Context, user *models.User, password string) error {
	if user.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}

func (p *LocalProvider) ChangePassword(ctx context.Context, accessToken string, user *models.User, newPassword string) error {
	if len(MissingPasswordRequirements(newPassword)) > 0 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := db.DB.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func issueSession(user models.User) (*Session, error) {
	token, expiresAt, err := GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &Session{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
