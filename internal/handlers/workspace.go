package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
)

type CreateWorkspaceRequest struct {
	Name      string   `json:"name" binding:"required,max=100"`
	Teammates []string `json:"teammates"`
}

type UpdateWorkspaceRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=100"`
	DiscordWebhook *string `json:"discord_webhook"`
	SlackWebhook   *string `json:"slack_webhook"`
}

// currentMember returns the membership resolved by middleware.WorkspaceMember.
func currentMember(ctx *gin.Context) (models.WorkspaceMember, bool) {
	member, err := utils.GetWorkspaceMember(ctx)

	if err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return member, false
	}

	return member, true
}

func CreateWorkspace(ctx *gin.Context) {
	var body CreateWorkspaceRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	user, err := utils.CurrentUserModel(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	workspace, err := services.CreateWorkspace(ctx.Request.Context(), user, services.CreateWorkspaceInput{
		Name:      body.Name,
		Teammates: body.Teammates,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, services.WorkspaceWithRole{Workspace: workspace, Role: models.RoleAdmin})
}

func ListWorkspaces(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	workspaces, err := services.ListWorkspaces(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, workspaces)
}

func GetWorkspace(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	workspace, err := services.GetWorkspace(ctx.Request.Context(), member.WorkspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, services.WorkspaceWithRole{Workspace: workspace, Role: member.Role})
}

func UpdateWorkspace(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	var body UpdateWorkspaceRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	workspace, err := services.UpdateWorkspace(ctx.Request.Context(), member.WorkspaceID, services.WorkspaceUpdate{
		Name:           body.Name,
		DiscordWebhook: body.DiscordWebhook,
		SlackWebhook:   body.SlackWebhook,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshWorkspace)

	ctx.JSON(http.StatusOK, services.WorkspaceWithRole{Workspace: workspace, Role: member.Role})
}

func DeleteWorkspace(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	if err := services.DeleteWorkspace(ctx.Request.Context(), member.WorkspaceID, member.UserID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshWorkspace)

	ctx.JSON(http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}

func GetDashboard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	dashboard, err := services.GetDashboard(ctx.Request.Context(), member.WorkspaceID, member.UserID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}
