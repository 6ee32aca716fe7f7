package handlers

import (
	"net/http"
	"strconv"

	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
)

func ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, err := utils.QueryInt(ctx, "limit", services.DefaultNotificationLimit)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unreadOnly, _ := strconv.ParseBool(ctx.Query("unread"))

	notifications, err := services.ListNotifications(ctx.Request.Context(), userID, services.NotificationFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	unread, err := services.UnreadNotificationCount(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread": unread})
}

func MarkAllNotificationsRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	updated, err := services.MarkAllNotificationsRead(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}

func MarkNotificationRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, err := utils.ParseUUIDParam(ctx, "notification_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := services.MarkNotificationRead(ctx.Request.Context(), userID, notificationID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notification)
}
