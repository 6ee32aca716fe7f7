package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	DoneColumnTitle = "Done"
)

// DefaultColumns seed every new board.
var DefaultColumns = []models.KanbanColumn{
	{Title: "To Do", Color: "#E0E0E0"},
	{Title: "In Progress", Color: "#FFC107"},
	{Title: "Review", Color: "#2196F3"},
	{Title: DoneColumnTitle, Color: "#4CAF50"},
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type ColumnUpdate struct {
	Title    *string
	Color    *string
	Position *int
}

type CardInput struct {
	ColumnID    *uuid.UUID
	Title       string
	Description string
	AssigneeID  *uuid.UUID
	DueDate     string
	Priority    string
	Labels      []string
}

// CardUpdate leaves nil fields untouched. An empty AssigneeID or DueDate clears it.
type CardUpdate struct {
	Title       *string
	Description *string
	AssigneeID  *string
	DueDate     *string
	Priority    *string
	Labels      *[]string
}

type CardMove struct {
	ColumnID uuid.UUID
	Position *int
}

type MoveResult struct {
	Card models.KanbanCard
	From models.KanbanColumn
	To   models.KanbanColumn
}

// CompletedMove reports whether the card just entered the Done column.
func (r MoveResult) CompletedMove() bool {
	return r.From.ID != r.To.ID && strings.EqualFold(r.To.Title, DoneColumnTitle)
}

func ListBoards(ctx context.Context, workspaceID uuid.UUID) ([]models.KanbanBoard, error) {
	boards := []models.KanbanBoard{}
	if err := db.DB.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at").Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// CreateBoard inserts the board with the default columns.
func CreateBoard(ctx context.Context, workspaceID, creatorID uuid.UUID, title string) (models.KanbanBoard, error) {
	board := models.KanbanBoard{
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(title),
		CreatedBy:   creatorID,
	}

	if board.Title == "" {
		return board, invalidf("board title is required")
	}

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}

		columns := make([]models.KanbanColumn, len(DefaultColumns))
		for i, c := range DefaultColumns {
			columns[i] = models.KanbanColumn{BoardID: board.ID, Title: c.Title, Color: c.Color, Position: i}
		}

		if err := tx.Create(&columns).Error; err != nil {
			return fmt.Errorf("failed to create columns: %w", err)
		}

		for i := range columns {
			columns[i].Cards = []models.KanbanCard{}
		}
		board.Columns = columns
		return nil
	})

	return board, err
}

// GetBoard loads the board with its columns and cards, each ordered by position.
func GetBoard(ctx context.Context, workspaceID, boardID uuid.UUID) (models.KanbanBoard, error) {
	var board models.KanbanBoard

	err := db.DB.WithContext(ctx).
		Preload("Columns", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position")
		}).
		Preload("Columns.Cards", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position")
		}).
		Where("id = ? AND workspace_id = ?", boardID, workspaceID).
		First(&board).Error
	if err != nil {
		return board, lookupErr(err, "board")
	}

	for i := range board.Columns {
		if board.Columns[i].Cards == nil {
			board.Columns[i].Cards = []models.KanbanCard{}
		}
	}

	return board, nil
}

func RenameBoard(ctx context.Context, workspaceID, boardID uuid.UUID, title string) (models.KanbanBoard, error) {
	board, err := findBoard(db.DB.WithContext(ctx), workspaceID, boardID)
	if err != nil {
		return board, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return board, invalidf("board title is required")
	}

	if err := db.DB.WithContext(ctx).Model(&board).Update("title", title).Error; err != nil {
		return board, fmt.Errorf("failed to rename board: %w", err)
	}
	board.Title = title

	return board, nil
}

func DeleteBoard(ctx context.Context, workspaceID, boardID uuid.UUID) error {
	board, err := findBoard(db.DB.WithContext(ctx), workspaceID, boardID)
	if err != nil {
		return err
	}

	if err := db.DB.WithContext(ctx).Delete(&board).Error; err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	return nil
}

// AddColumn appends a column to the board.
func AddColumn(ctx context.Context, workspaceID, boardID uuid.UUID, title, color string) (models.KanbanColumn, error) {
	column := models.KanbanColumn{BoardID: boardID, Title: strings.TrimSpace(title), Color: strings.TrimSpace(color)}

	if column.Title == "" {
		return column, invalidf("column title is required")
	}
	if column.Color != "" && !colorPattern.MatchString(column.Color) {
		return column, invalidf("color must look like #RRGGBB")
	}

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findBoard(tx, workspaceID, boardID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.KanbanColumn{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count columns: %w", err)
		}
		column.Position = int(count)

		if err := tx.Create(&column).Error; err != nil {
			return fmt.Errorf("failed to create column: %w", err)
		}
		return nil
	})

	column.Cards = []models.KanbanCard{}
	return column, err
}

// UpdateColumn changes title or color, and moving it reorders the board's other columns.
func UpdateColumn(ctx context.Context, workspaceID, columnID uuid.UUID, in ColumnUpdate) (models.KanbanColumn, error) {
	var column models.KanbanColumn

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		column, err = findColumn(tx, workspaceID, columnID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return invalidf("column title is required")
			}
			updates["title"] = title
		}

		if in.Color != nil {
			color := strings.TrimSpace(*in.Color)
			if color != "" && !colorPattern.MatchString(color) {
				return invalidf("color must look like #RRGGBB")
			}
			updates["color"] = color
		}

		if len(updates) == 0 && in.Position == nil {
			return invalidf("no valid fields to update")
		}

		if len(updates) > 0 {
			if err := tx.Model(&column).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update column: %w", err)
			}
		}

		if in.Position != nil {
			ids, err := columnIDs(tx, column.BoardID)
			if err != nil {
				return err
			}
			if err := savePositions(tx, &models.KanbanColumn{}, moveID(ids, column.ID, in.Position)); err != nil {
				return err
			}
		}

		return tx.First(&column, "id = ?", column.ID).Error
	})

	return column, err
}

// DeleteColumn only removes empty columns.
func DeleteColumn(ctx context.Context, workspaceID, columnID uuid.UUID) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		column, err := findColumn(tx, workspaceID, columnID)
		if err != nil {
			return err
		}

		var cards int64
		if err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", column.ID).Count(&cards).Error; err != nil {
			return fmt.Errorf("failed to count cards: %w", err)
		}
		if cards > 0 {
			return conflict("move or delete the cards of this column first")
		}

		if err := tx.Delete(&column).Error; err != nil {
			return fmt.Errorf("failed to delete column: %w", err)
		}

		ids, err := columnIDs(tx, column.BoardID)
		if err != nil {
			return err
		}
		return savePositions(tx, &models.KanbanColumn{}, ids)
	})
}

// AddCard appends a card to the given column, or to the board's first column.
func AddCard(ctx context.Context, workspaceID, boardID, creatorID uuid.UUID, in CardInput) (models.KanbanCard, error) {
	card := models.KanbanCard{
		BoardID:     boardID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    in.Priority,
		CreatedBy:   creatorID,
	}

	if card.Title == "" {
		return card, invalidf("card title is required")
	}

	if card.Priority == "" {
		card.Priority = PriorityMedium
	}
	if !validPriority(card.Priority) {
		return card, invalidf("priority must be high, medium or low")
	}

	due, err := ParseDueDate(in.DueDate)
	if err != nil {
		return card, err
	}
	card.DueDate = due

	labels, err := encodeLabels(in.Labels)
	if err != nil {
		return card, err
	}
	card.Labels = labels

	if in.AssigneeID != nil {
		if err := ensureAssignee(ctx, workspaceID, *in.AssigneeID); err != nil {
			return card, err
		}
		card.AssigneeID = in.AssigneeID
	}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findBoard(tx, workspaceID, boardID); err != nil {
			return err
		}

		var column models.KanbanColumn
		if in.ColumnID != nil {
			column, err = findColumn(tx, workspaceID, *in.ColumnID)
			if err != nil {
				return err
			}
			if column.BoardID != boardID {
				return invalidf("column belongs to another board")
			}
		} else {
			err := tx.Where("board_id = ?", boardID).Order("position").First(&column).Error
			if err != nil {
				return lookupErr(err, "column")
			}
		}

		var count int64
		if err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", column.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count cards: %w", err)
		}

		card.ColumnID = column.ID
		card.Position = int(count)

		if err := tx.Create(&card).Error; err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return nil
	})

	return card, err
}

func UpdateCard(ctx context.Context, workspaceID, cardID uuid.UUID, in CardUpdate) (models.KanbanCard, error) {
	card, err := findCard(db.DB.WithContext(ctx), workspaceID, cardID)
	if err != nil {
		return card, err
	}

	updates := make(map[string]interface{})

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return card, invalidf("card title is required")
		}
		updates["title"] = title
	}

	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}

	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			updates["assignee_id"] = nil
		} else {
			id, err := uuid.Parse(*in.AssigneeID)
			if err != nil {
				return card, invalidf("invalid assignee id")
			}
			if err := ensureAssignee(ctx, workspaceID, id); err != nil {
				return card, err
			}
			updates["assignee_id"] = id
		}
		updates["reminded_at"] = nil
	}

	if in.DueDate != nil {
		due, err := ParseDueDate(*in.DueDate)
		if err != nil {
			return card, err
		}
		updates["due_date"] = due
		updates["reminded_at"] = nil
	}

	if in.Priority != nil {
		if !validPriority(*in.Priority) {
			return card, invalidf("priority must be high, medium or low")
		}
		updates["priority"] = *in.Priority
	}

	if in.Labels != nil {
		labels, err := encodeLabels(*in.Labels)
		if err != nil {
			return card, err
		}
		updates["labels"] = labels
	}

	if len(updates) == 0 {
		return card, invalidf("no valid fields to update")
	}

	if err := db.DB.WithContext(ctx).Model(&card).Updates(updates).Error; err != nil {
		return card, fmt.Errorf("failed to update card: %w", err)
	}

	return findCard(db.DB.WithContext(ctx), workspaceID, cardID)
}

// DeleteCard removes the card and closes the gap in its column.
func DeleteCard(ctx context.Context, workspaceID, cardID uuid.UUID) (models.KanbanCard, error) {
	var card models.KanbanCard

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		card, err = findCard(tx, workspaceID, cardID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&card).Error; err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}

		ids, err := cardIDs(tx, card.ColumnID)
		if err != nil {
			return err
		}
		return savePositions(tx, &models.KanbanCard{}, ids)
	})

	return card, err
}

// MoveCard takes the card out of its column and inserts it into the target
// column at the clamped position, then renumbers both columns from zero.
func MoveCard(ctx context.Context, workspaceID, cardID uuid.UUID, move CardMove) (MoveResult, error) {
	var result MoveResult

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := findCard(tx, workspaceID, cardID)
		if err != nil {
			return err
		}

		from, err := findColumn(tx, workspaceID, card.ColumnID)
		if err != nil {
			return err
		}

		to, err := findColumn(tx, workspaceID, move.ColumnID)
		if err != nil {
			return err
		}

		if to.BoardID != card.BoardID {
			return invalidf("cards cannot move to another board")
		}

		target, err := cardIDs(tx, to.ID)
		if err != nil {
			return err
		}

		if from.ID != to.ID {
			source, err := cardIDs(tx, from.ID)
			if err != nil {
				return err
			}
			if err := savePositions(tx, &models.KanbanCard{}, removeID(source, card.ID)); err != nil {
				return err
			}
			if err := tx.Model(&card).Update("column_id", to.ID).Error; err != nil {
				return fmt.Errorf("failed to move card: %w", err)
			}
		}

		if err := savePositions(tx, &models.KanbanCard{}, moveID(target, card.ID, move.Position)); err != nil {
			return err
		}

		if err := tx.First(&card, "id = ?", card.ID).Error; err != nil {
			return err
		}

		result = MoveResult{Card: card, From: from, To: to}
		return nil
	})

	return result, err
}

// ParseDueDate accepts YYYY-MM-DD or RFC3339. An empty string means no due date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, invalidf("due date must be YYYY-MM-DD or RFC3339")
	}

	t = t.UTC()
	return &t, nil
}

// NormalizeLabels trims labels and drops empty and repeated ones.
func NormalizeLabels(labels []string) []string {
	out := []string{}
	seen := make(map[string]bool)

	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}

	return out
}

// CardLabels decodes the labels column.
func CardLabels(card models.KanbanCard) []string {
	var labels []string
	if len(card.Labels) == 0 || json.Unmarshal(card.Labels, &labels) != nil {
		return []string{}
	}
	return labels
}

func encodeLabels(labels []string) (datatypes.JSON, error) {
	data, err := json.Marshal(NormalizeLabels(labels))
	if err != nil {
		return nil, fmt.Errorf("failed to encode labels: %w", err)
	}
	return datatypes.JSON(data), nil
}

func validPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func ensureAssignee(ctx context.Context, workspaceID, userID uuid.UUID) error {
	if _, err := GetMembership(ctx, workspaceID, userID); err != nil {
		if isNotFound(err) {
			return invalidf("assignee is not a member of this workspace")
		}
		return err
	}
	return nil
}

func findBoard(tx *gorm.DB, workspaceID, boardID uuid.UUID) (models.KanbanBoard, error) {
	var board models.KanbanBoard
	if err := tx.Where("id = ? AND workspace_id = ?", boardID, workspaceID).First(&board).Error; err != nil {
		return board, lookupErr(err, "board")
	}
	return board, nil
}

func findColumn(tx *gorm.DB, workspaceID, columnID uuid.UUID) (models.KanbanColumn, error) {
	var column models.KanbanColumn
	if err := tx.First(&column, "id = ?", columnID).Error; err != nil {
		return column, lookupErr(err, "column")
	}

	if _, err := findBoard(tx, workspaceID, column.BoardID); err != nil {
		return column, notFound("column")
	}

	return column, nil
}

func findCard(tx *gorm.DB, workspaceID, cardID uuid.UUID) (models.KanbanCard, error) {
	var card models.KanbanCard
	if err := tx.First(&card, "id = ?", cardID).Error; err != nil {
		return card, lookupErr(err, "card")
	}

	if _, err := findBoard(tx, workspaceID, card.BoardID); err != nil {
		return card, notFound("card")
	}

	return card, nil
}

func columnIDs(tx *gorm.DB, boardID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.KanbanColumn{}).Where("board_id = ?", boardID).Order("position, created_at").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}
	return ids, nil
}

func cardIDs(tx *gorm.DB, columnID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.KanbanCard{}).Where("column_id = ?", columnID).Order("position, created_at").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return ids, nil
}

// savePositions numbers the rows of model 0..n-1 in the order of ids.
func savePositions(tx *gorm.DB, model interface{}, ids []uuid.UUID) error {
	for i, id := range ids {
		if err := tx.Model(model).Where("id = ?", id).UpdateColumn("position", i).Error; err != nil {
			return fmt.Errorf("failed to save positions: %w", err)
		}
	}
	return nil
}
