package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
)

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin member"`
}

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

func ListMembers(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	members, err := services.ListMembers(ctx.Request.Context(), member.WorkspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, members)
}

func AddMember(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	var body AddMemberRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	inviter, err := utils.CurrentUserModel(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	added, err := services.AddMember(ctx.Request.Context(), member.WorkspaceID, inviter, body.Email, body.Role)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMembers)

	ctx.JSON(http.StatusCreated, added)
}

func UpdateMemberRole(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	userID, err := utils.ParseUUIDParam(ctx, "user_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateMemberRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	updated, err := services.ChangeMemberRole(ctx.Request.Context(), member.WorkspaceID, userID, body.Role)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMembers)

	ctx.JSON(http.StatusOK, updated)
}

func RemoveMember(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	userID, err := utils.ParseUUIDParam(ctx, "user_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.RemoveMember(ctx.Request.Context(), member.WorkspaceID, member, userID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMembers)

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
