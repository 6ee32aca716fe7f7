package services

import (
	"context"
	"fmt"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ColumnStats struct {
	ColumnID uuid.UUID `json:"column_id"`
	Title    string    `json:"title"`
	Cards    int64     `json:"cards"`
}

type BoardStats struct {
	BoardID uuid.UUID     `json:"board_id"`
	Title   string        `json:"title"`
	Columns []ColumnStats `json:"columns"`
}

type Dashboard struct {
	Members             int64        `json:"members"`
	Channels            int64        `json:"channels"`
	Boards              int64        `json:"boards"`
	Notes               int64        `json:"notes"`
	UnreadNotifications int64        `json:"unread_notifications"`
	BoardStats          []BoardStats `json:"board_stats"`
}

// GetDashboard summarises a workspace from the point of view of userID.
func GetDashboard(ctx context.Context, workspaceID, userID uuid.UUID) (Dashboard, error) {
	var d Dashboard
	conn := db.DB.WithContext(ctx)

	counts := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&d.Members, &models.WorkspaceMember{}, "workspace_id = ?", []interface{}{workspaceID}},
		{&d.Channels, &models.Channel{}, "workspace_id = ?", []interface{}{workspaceID}},
		{&d.Boards, &models.KanbanBoard{}, "workspace_id = ?", []interface{}{workspaceID}},
		{&d.Notes, &models.Note{}, "workspace_id = ? AND (user_id = ? OR shared = ?)", []interface{}{workspaceID, userID, true}},
		{&d.UnreadNotifications, &models.Notification{}, "recipient_id = ? AND workspace_id = ? AND is_read = ?", []interface{}{userID, workspaceID, false}},
	}

	for _, c := range counts {
		if err := conn.Model(c.model).Where(c.where, c.args...).Count(c.dest).Error; err != nil {
			return d, fmt.Errorf("failed to build dashboard: %w", err)
		}
	}

	var boards []models.KanbanBoard
	err := conn.Preload("Columns", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position")
	}).Where("workspace_id = ?", workspaceID).Order("created_at").Find(&boards).Error
	if err != nil {
		return d, fmt.Errorf("failed to load boards: %w", err)
	}

	var perColumn []struct {
		ColumnID uuid.UUID
		Total    int64
	}
	err = conn.Model(&models.KanbanCard{}).
		Select("column_id, COUNT(*) AS total").
		Joins("JOIN kanban_boards ON kanban_boards.id = kanban_cards.board_id").
		Where("kanban_boards.workspace_id = ?", workspaceID).
		Group("column_id").
		Scan(&perColumn).Error
	if err != nil {
		return d, fmt.Errorf("failed to count cards: %w", err)
	}

	totals := make(map[uuid.UUID]int64, len(perColumn))
	for _, row := range perColumn {
		totals[row.ColumnID] = row.Total
	}

	d.BoardStats = make([]BoardStats, 0, len(boards))
	for _, board := range boards {
		stats := BoardStats{BoardID: board.ID, Title: board.Title, Columns: []ColumnStats{}}
		for _, column := range board.Columns {
			stats.Columns = append(stats.Columns, ColumnStats{
				ColumnID: column.ID,
				Title:    column.Title,
				Cards:    totals[column.ID],
			})
		}
		d.BoardStats = append(d.BoardStats, stats)
	}

	return d, nil
}
