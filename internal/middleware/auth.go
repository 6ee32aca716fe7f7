package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/auth"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthenticatedUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

const TokenCookie = "token"

// AuthMiddleware is the session guard. The token comes from the Authorization
// header, the token cookie or, for websocket upgrades, the access_token query parameter.
func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := extractToken(ctx)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := auth.VerifyJWT(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := claims.UserID()

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token claims"})
			return
		}

		var user models.User

		if err := db.DB.WithContext(ctx.Request.Context()).Where("id = ?", userID).First(&user).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				zap.L().Error("failed to load session user", zap.String("user_id", userID.String()), zap.Error(err))
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		ctx.Set(types.ContextTokenKey, tokenString)
		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		})
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, error) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errors.New("Authorization header format must be Bearer {token}")
		}

		return parts[1], nil
	}

	if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}

	if strings.EqualFold(ctx.GetHeader("Upgrade"), "websocket") {
		if token := ctx.Query("access_token"); token != "" {
			return token, nil
		}
	}

	return "", errors.New("Authorization token is required")
}
