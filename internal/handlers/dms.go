package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
)

func ListConversations(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	conversations, err := services.ListConversations(ctx.Request.Context(), member.WorkspaceID, member.UserID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, conversations)
}

func ListDirectMessages(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	partnerID, err := utils.ParseUUIDParam(ctx, "user_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, ok := messagePage(ctx)
	if !ok {
		return
	}

	messages, err := services.ListDirectMessages(ctx.Request.Context(), member.WorkspaceID, member.UserID, partnerID, page)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func SendDirectMessage(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	recipientID, err := utils.ParseUUIDParam(ctx, "user_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body MessageRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	sender, err := utils.CurrentUserModel(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	message, err := services.SendDirectMessage(ctx.Request.Context(), member.WorkspaceID, sender, recipientID, body.Content)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshMessages)
	realtime.Broadcast(member.WorkspaceID, types.RefreshNotifications)

	ctx.JSON(http.StatusCreated, message)
}

func SearchRecipients(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	recipients, err := services.SearchRecipients(ctx.Request.Context(), member.WorkspaceID, ctx.Query("q"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, recipients)
}
