package utils

import (
	"fmt"

	"github.com/autonotions/autonotions/internal/middleware"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uuid.UUID, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return uuid.Nil, err
	}

	return user.ID, nil
}

// CurrentUserModel returns the session user as a model for services that need one.
func CurrentUserModel(ctx *gin.Context) (models.User, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return models.User{}, err
	}

	return models.User{
		BaseModel: models.BaseModel{ID: user.ID},
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}, nil
}

func GetAccessToken(ctx *gin.Context) string {
	return ctx.GetString(types.ContextTokenKey)
}

func GetWorkspaceMember(ctx *gin.Context) (models.WorkspaceMember, error) {
	value, exists := ctx.Get(types.ContextMemberKey)

	if !exists {
		return models.WorkspaceMember{}, fmt.Errorf("Workspace membership not resolved")
	}

	member, ok := value.(models.WorkspaceMember)

	if !ok {
		return models.WorkspaceMember{}, fmt.Errorf("Invalid membership type in context")
	}

	return member, nil
}
