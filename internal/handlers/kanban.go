package handlers

import (
	"net/http"

	"github.com/autonotions/autonotions/internal/models"
	"github.com/autonotions/autonotions/internal/realtime"
	"github.com/autonotions/autonotions/internal/services"
	"github.com/autonotions/autonotions/internal/types"
	"github.com/autonotions/autonotions/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BoardRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

type CreateColumnRequest struct {
	Title string `json:"title" binding:"required,max=100"`
	Color string `json:"color"`
}

type UpdateColumnRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=100"`
	Color    *string `json:"color"`
	Position *int    `json:"position" binding:"omitempty,min=0"`
}

type CreateCardRequest struct {
	ColumnID    *uuid.UUID `json:"column_id"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     string     `json:"due_date"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	Labels      []string   `json:"labels"`
}

type UpdateCardRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description"`
	AssigneeID  *string   `json:"assignee_id"`
	DueDate     *string   `json:"due_date"`
	Priority    *string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	Labels      *[]string `json:"labels"`
}

type MoveCardRequest struct {
	ColumnID uuid.UUID `json:"column_id" binding:"required"`
	Position *int      `json:"position" binding:"omitempty,min=0"`
}

func ListBoards(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boards, err := services.ListBoards(ctx.Request.Context(), member.WorkspaceID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

func CreateBoard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	var body BoardRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	board, err := services.CreateBoard(ctx.Request.Context(), member.WorkspaceID, member.UserID, body.Title)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusCreated, board)
}

func GetBoard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boardID, err := utils.ParseUUIDParam(ctx, "board_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := services.GetBoard(ctx.Request.Context(), member.WorkspaceID, boardID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, board)
}

func RenameBoard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boardID, err := utils.ParseUUIDParam(ctx, "board_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body BoardRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	board, err := services.RenameBoard(ctx.Request.Context(), member.WorkspaceID, boardID, body.Title)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, board)
}

func DeleteBoard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boardID, err := utils.ParseUUIDParam(ctx, "board_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.DeleteBoard(ctx.Request.Context(), member.WorkspaceID, boardID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

func AddColumn(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boardID, err := utils.ParseUUIDParam(ctx, "board_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body CreateColumnRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	column, err := services.AddColumn(ctx.Request.Context(), member.WorkspaceID, boardID, body.Title, body.Color)

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusCreated, column)
}

func UpdateColumn(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	columnID, err := utils.ParseUUIDParam(ctx, "column_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateColumnRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	column, err := services.UpdateColumn(ctx.Request.Context(), member.WorkspaceID, columnID, services.ColumnUpdate{
		Title:    body.Title,
		Color:    body.Color,
		Position: body.Position,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, column)
}

func DeleteColumn(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	columnID, err := utils.ParseUUIDParam(ctx, "column_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.DeleteColumn(ctx.Request.Context(), member.WorkspaceID, columnID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, gin.H{"message": "Column deleted successfully"})
}

func AddCard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	boardID, err := utils.ParseUUIDParam(ctx, "board_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body CreateCardRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	card, err := services.AddCard(ctx.Request.Context(), member.WorkspaceID, boardID, member.UserID, services.CardInput{
		ColumnID:    body.ColumnID,
		Title:       body.Title,
		Description: body.Description,
		AssigneeID:  body.AssigneeID,
		DueDate:     body.DueDate,
		Priority:    body.Priority,
		Labels:      body.Labels,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusCreated, card)
}

func UpdateCard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	cardID, err := utils.ParseUUIDParam(ctx, "card_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateCardRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	card, err := services.UpdateCard(ctx.Request.Context(), member.WorkspaceID, cardID, services.CardUpdate{
		Title:       body.Title,
		Description: body.Description,
		AssigneeID:  body.AssigneeID,
		DueDate:     body.DueDate,
		Priority:    body.Priority,
		Labels:      body.Labels,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, card)
}

func DeleteCard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	cardID, err := utils.ParseUUIDParam(ctx, "card_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := services.DeleteCard(ctx.Request.Context(), member.WorkspaceID, cardID); err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	ctx.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

func MoveCard(ctx *gin.Context) {
	member, ok := currentMember(ctx)
	if !ok {
		return
	}

	cardID, err := utils.ParseUUIDParam(ctx, "card_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body MoveCardRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		respondBindError(ctx, err)
		return
	}

	result, err := services.MoveCard(ctx.Request.Context(), member.WorkspaceID, cardID, services.CardMove{
		ColumnID: body.ColumnID,
		Position: body.Position,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	realtime.Broadcast(member.WorkspaceID, types.RefreshKanban)

	if result.CompletedMove() {
		notifyCardCompleted(ctx, member, result.Card)
	}

	ctx.JSON(http.StatusOK, result.Card)
}

func notifyCardCompleted(ctx *gin.Context, member models.WorkspaceMember, card models.KanbanCard) {
	workspace, err := services.GetWorkspace(ctx.Request.Context(), member.WorkspaceID)
	if err != nil {
		zap.L().Warn("failed to load workspace for webhooks", zap.Error(err))
		return
	}

	if workspace.DiscordWebhook == "" && workspace.SlackWebhook == "" {
		return
	}

	board, err := services.GetBoard(ctx.Request.Context(), member.WorkspaceID, card.BoardID)
	if err != nil {
		zap.L().Warn("failed to load board for webhooks", zap.Error(err))
		return
	}

	actor, _ := utils.CurrentUserModel(ctx)
	services.SendWorkspaceWebhooksAsync(workspace, services.CardCompletedEvent(board, card, actor))
}
