package services

import (
	"context"
	"fmt"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ReminderWindow = 24 * time.Hour

type dueCard struct {
	models.KanbanCard
	WorkspaceID uuid.UUID
}

// SendDueCardReminders notifies the assignee of every card due within the
// reminder window, once per card, and returns how many were sent. Only
// assignees who still belong to the card's workspace are reminded. A card that
// fails is logged and retried on the next run.
func SendDueCardReminders(ctx context.Context, now time.Time) (int, error) {
	var cards []dueCard

	err := db.DB.WithContext(ctx).
		Model(&models.KanbanCard{}).
		Select("kanban_cards.*, kanban_boards.workspace_id AS workspace_id").
		Joins("JOIN kanban_boards ON kanban_boards.id = kanban_cards.board_id").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = kanban_boards.workspace_id AND workspace_members.user_id = kanban_cards.assignee_id").
		Where("kanban_cards.reminded_at IS NULL").
		Where("kanban_cards.due_date >= ? AND kanban_cards.due_date <= ?", now, now.Add(ReminderWindow)).
		Order("kanban_cards.due_date").
		Scan(&cards).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find due cards: %w", err)
	}

	sent := 0
	for _, due := range cards {
		card := due.KanbanCard
		workspaceID := due.WorkspaceID
		message := fmt.Sprintf("Card %q is due %s", card.Title, card.DueDate.Format("Jan 2 15:04 MST"))

		err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := notify(tx, []uuid.UUID{*card.AssigneeID}, nil, &workspaceID, models.NotificationReminder, message); err != nil {
				return err
			}
			return tx.Model(&card).UpdateColumn("reminded_at", now).Error
		})
		if err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			zap.L().Warn("failed to remind card", zap.String("card_id", card.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	return sent, nil
}
