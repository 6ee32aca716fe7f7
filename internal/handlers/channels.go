package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateChannelRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func ListChannels(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	channels, err := services.ListChannels(ctx.Request.Context(), member.WorkspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, channels)
}

func CreateChannel(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	var body CreateChannelRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	channel, err := services.CreateChannel(ctx.Request.Context(), member.WorkspaceID, member.UserID, body.Name, body.Description)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshChannels)

	if workspace, err := services.GetWorkspace(ctx.Request.Context(), member.WorkspaceID); err == nil {
		creator, _ := utils.CurrentUserModel(ctx)
		services.SendWorkspaceWebhooksAsync(workspace, services.ChannelCreatedEvent(channel, creator))
	} else {
		zap.L().Warn("failed to load workspace for webhooks", zap.Error(err))
	}

	ctx.JSON(http.StatusCreated, channel)
}

func UpdateChannel(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	channelID, err := utils.ParseUUIDParam(ctx, "channel_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateChannelRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	channel, err := services.UpdateChannel(ctx.Request.Context(), member.WorkspaceID, channelID, member, services.ChannelUpdate{
		Name:        body.Name,
		Description: body.Description,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshChannels)

	ctx.JSON(http.StatusOK, channel)
}

func DeleteChannel(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	channelID, err := utils.ParseUUIDParam(ctx, "channel_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.DeleteChannel(ctx.Request.Context(), member.WorkspaceID, channelID, member); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshChannels)

	ctx.JSON(http.StatusOK, gin.H{"message": "Channel deleted successfully"})
}

// messagePage reads the limit and before query parameters.
func messagePage(ctx *gin.Context) (services.Page, bool) {
	limit, err := utils.QueryInt(ctx, "limit", services.DefaultMessageLimit)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.Page{}, false
	}

	before, err := utils.QueryTime(ctx, "before")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.Page{}, false
	}

	return services.Page{Limit: limit, Before: before}, true
}

func ListMessages(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	channelID, err := utils.ParseUUIDParam(ctx, "channel_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, ok := messagePage(ctx)
	if !ok {
		return
	}

	messages, err := services.ListChannelMessages(ctx.Request.Context(), member.WorkspaceID, channelID, page)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func SendMessage(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	channelID, err := utils.ParseUUIDParam(ctx, "channel_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body MessageRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	author, err := utils.CurrentUserModel(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	message, err := services.SendChannelMessage(ctx.Request.Context(), member.WorkspaceID, channelID, author, body.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMessages)
	if len(message.Mentions) > 0 {
		realtime.Broadcast(member.WorkspaceID, types.RefreshNotifications)
	}

	ctx.JSON(http.StatusCreated, message)
}

func EditMessage(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	messageID, err := utils.ParseUUIDParam(ctx, "message_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body MessageRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	message, err := services.EditMessage(ctx.Request.Context(), member.WorkspaceID, messageID, member.UserID, body.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMessages)

	ctx.JSON(http.StatusOK, message)
}

func DeleteMessage(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	messageID, err := utils.ParseUUIDParam(ctx, "message_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := services.DeleteMessage(ctx.Request.Context(), member.WorkspaceID, messageID, member); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMessages)

	ctx.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
