package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
)

const DefaultNoteTitle = "Untitled"

type NoteInput struct {
	Title   string
	Content string
	Shared  bool
}

type NoteUpdate struct {
	Title   *string
	Content *string
	Shared  *bool
}

// ListNotes returns the user's notes and the workspace's shared notes, last edited first.
func ListNotes(ctx context.Context, workspaceID, userID uuid.UUID) ([]models.Note, error) {
	notes := []models.Note{}

	err := db.DB.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Where("user_id = ? OR shared = ?", userID, true).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, nil
}

func CreateNote(ctx context.Context, workspaceID, userID uuid.UUID, in NoteInput) (models.Note, error) {
	note := models.Note{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		Shared:      in.Shared,
	}

	if note.Title == "" {
		note.Title = DefaultNoteTitle
	}

	if err := db.DB.WithContext(ctx).Create(&note).Error; err != nil {
		return note, fmt.Errorf("failed to create note: %w", err)
	}

	return note, nil
}

// GetNote returns a note the user owns or that is shared; others look missing.
func GetNote(ctx context.Context, workspaceID, userID, noteID uuid.UUID) (models.Note, error) {
	var note models.Note

	err := db.DB.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", noteID, workspaceID).
		Where("user_id = ? OR shared = ?", userID, true).
		First(&note).Error
	if err != nil {
		return note, lookupErr(err, "note")
	}

	return note, nil
}

func UpdateNote(ctx context.Context, workspaceID, userID, noteID uuid.UUID, in NoteUpdate) (models.Note, error) {
	note, err := GetNote(ctx, workspaceID, userID, noteID)
	if err != nil {
		return note, err
	}

	if note.UserID != userID {
		return note, forbidden("only the author can edit this note")
	}

	updates := make(map[string]interface{})

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			title = DefaultNoteTitle
		}
		updates["title"] = title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Shared != nil {
		updates["shared"] = *in.Shared
	}

	if len(updates) == 0 {
		return note, invalidf("no valid fields to update")
	}

	if err := db.DB.WithContext(ctx).Model(&note).Updates(updates).Error; err != nil {
		return note, fmt.Errorf("failed to update note: %w", err)
	}

	return GetNote(ctx, workspaceID, userID, noteID)
}

func DeleteNote(ctx context.Context, workspaceID, userID, noteID uuid.UUID) error {
	note, err := GetNote(ctx, workspaceID, userID, noteID)
	if err != nil {
		return err
	}

	if note.UserID != userID {
		return forbidden("only the author can delete this note")
	}

	if err := db.DB.WithContext(ctx).Delete(&note).Error; err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}
