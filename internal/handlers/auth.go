package handlers

import (
	"net/http"
	"strings"

	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name            *string `json:"name" binding:"omitempty,max=100"`
	Email           *string `json:"email" binding:"omitempty,email"`
	AvatarURL       *string `json:"avatar_url" binding:"omitempty,max=2048"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password" binding:"omitempty,password"`
}

type DeleteUserRequest struct {
	Password string `json:"password" binding:"required"`
}

func userResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

func CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	session, err := options.Provider.SignUp(ctx.Request.Context(), auth.SignUpInput{
		Name:     strings.TrimSpace(body.Name),
		Email:    body.Email,
		Password: body.Password,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	if session.AccessToken == "" {
		ctx.JSON(http.StatusAccepted, gin.H{
			"user":                  userResponse(session.User),
			"confirmation_required": true,
		})
		return
	}

	setTokenCookie(ctx.Writer, session.AccessToken, session.ExpiresAt)

	ctx.JSON(http.StatusCreated, gin.H{
		"user":       userResponse(session.User),
		"expires_at": session.ExpiresAt,
	})
}

func LoginUser(ctx *gin.Context) {
	var body LoginUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	session, err := options.Provider.SignIn(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		respondError(ctx, err)
		return
	}

	setTokenCookie(ctx.Writer, session.AccessToken, session.ExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"user":       userResponse(session.User),
		"expires_at": session.ExpiresAt,
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:        currentUser.ID,
			Name:      currentUser.Name,
			Email:     currentUser.Email,
			AvatarURL: currentUser.AvatarURL,
		},
	})
}

func LogoutUser(ctx *gin.Context) {
	if err := options.Provider.SignOut(ctx.Request.Context(), utils.GetAccessToken(ctx)); err != nil {
		zap.L().Warn("auth provider sign-out failed", zap.Error(err))
	}

	clearTokenCookie(ctx.Writer)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func UpdateUser(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	user, err := services.GetUser(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if body.NewPassword != "" {
		if body.CurrentPassword == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is required to change password"})
			return
		}

		if err := options.Provider.VerifyPassword(ctx.Request.Context(), &user, body.CurrentPassword); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}

		if err := options.Provider.ChangePassword(ctx.Request.Context(), utils.GetAccessToken(ctx), &user, body.NewPassword); err != nil {
			respondError(ctx, err)
			return
		}
	}

	if body.Name != nil || body.Email != nil || body.AvatarURL != nil {
		user, err = services.UpdateProfile(ctx.Request.Context(), userID, services.ProfileUpdate{
			Name:      body.Name,
			Email:     body.Email,
			AvatarURL: body.AvatarURL,
		})

		if err != nil {
			respondError(ctx, err)
			return
		}
	} else if body.NewPassword == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    userResponse(user),
	})
}

func DeleteUser(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body DeleteUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Password is required for account deletion"})
		return
	}

	user, err := services.GetUser(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := options.Provider.VerifyPassword(ctx.Request.Context(), &user, body.Password); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect password"})
		return
	}

	if err := services.DeleteUser(ctx.Request.Context(), userID); err != nil {
		respondError(ctx, err)
		return
	}

	clearTokenCookie(ctx.Writer)

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func SearchUsers(ctx *gin.Context) {
	users, err := services.SearchUsersByEmail(ctx.Request.Context(), ctx.Query("email"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]types.UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userResponse(u))
	}

	ctx.JSON(http.StatusOK, response)
}
