package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxUserSearchResults = 20

type ProfileUpdate struct {
	Name      *string
	Email     *string
	AvatarURL *string
}

func GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := db.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return user, lookupErr(err, "user")
	}
	return user, nil
}

// SearchUsersByEmail matches a case-insensitive substring of the email.
func SearchUsersByEmail(ctx context.Context, query string) ([]models.User, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	users := []models.User{}

	if query == "" {
		return users, nil
	}

	err := db.DB.WithContext(ctx).
		Where("LOWER(email) LIKE ?"+likeEscape, "%"+escapeLike(query)+"%").
		Order("email").
		Limit(MaxUserSearchResults).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

func UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (models.User, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return user, err
	}

	updates := make(map[string]interface{})

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return user, invalidf("name cannot be empty")
		}
		updates["name"] = name
	}

	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if !auth.ValidEmail(email) {
			return user, invalidf("invalid email address")
		}

		if email != user.Email {
			var existing models.User
			err := db.DB.WithContext(ctx).Where("email = ? AND id <> ?", email, user.ID).First(&existing).Error
			if err == nil {
				return user, conflict("email already exists")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return user, fmt.Errorf("failed to check existing email: %w", err)
			}
		}

		updates["email"] = email
	}

	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}

	if len(updates) == 0 {
		return user, invalidf("no valid fields to update")
	}

	if err := db.DB.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return user, fmt.Errorf("failed to update user: %w", err)
	}

	return GetUser(ctx, userID)
}

// DeleteUser removes the profile; foreign keys cascade to everything the user owns.
func DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result := db.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

const likeEscape = ` ESCAPE '\'`
