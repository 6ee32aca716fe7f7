package middleware

import (
	"errors"
	"net/http"

	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkspaceMember resolves :workspace_id and requires the session user to belong to it.
func WorkspaceMember() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		workspaceID, err := uuid.Parse(ctx.Param("workspace_id"))

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid workspace ID"})
			return
		}

		value, exists := ctx.Get(types.ContextUserKey)
		user, ok := value.(AuthenticatedUser)

		if !exists || !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		member, err := services.GetMembership(ctx.Request.Context(), workspaceID, user.ID)

		if err != nil {
			if !isNotFound(err) {
				zap.L().Error("failed to check membership", zap.String("workspace_id", workspaceID.String()), zap.Error(err))
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		ctx.Set(types.ContextMemberKey, member)
		ctx.Next()
	}
}

// RequireWorkspaceRole runs after WorkspaceMember.
func RequireWorkspaceRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, _ := ctx.Get(types.ContextMemberKey)
		member, ok := value.(models.WorkspaceMember)

		if !ok || member.Role != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient workspace role"})
			return
		}

		ctx.Next()
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
