package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxRecipientResults = 20

type Conversation struct {
	User        models.User    `json:"user"`
	LastMessage models.Message `json:"last_message"`
}

type Recipients struct {
	Channels []models.Channel `json:"channels"`
	Members  []models.User    `json:"members"`
}

// ListConversations returns one entry per direct-message partner, most recent first.
func ListConversations(ctx context.Context, workspaceID, userID uuid.UUID) ([]Conversation, error) {
	var messages []models.Message

	err := db.DB.WithContext(ctx).
		Where("workspace_id = ? AND recipient_id IS NOT NULL", workspaceID).
		Where("user_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list direct messages: %w", err)
	}

	latest := make(map[uuid.UUID]models.Message)
	var partners []uuid.UUID

	for _, m := range messages {
		partner := m.UserID
		if partner == userID {
			partner = *m.RecipientID
		}
		if _, ok := latest[partner]; ok {
			continue
		}
		latest[partner] = m
		partners = append(partners, partner)
	}

	conversations := []Conversation{}
	if len(partners) == 0 {
		return conversations, nil
	}

	var users []models.User
	if err := db.DB.WithContext(ctx).Where("id IN ?", partners).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load conversation partners: %w", err)
	}

	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, id := range partners {
		user, ok := byID[id]
		if !ok {
			continue
		}
		conversations = append(conversations, Conversation{User: user, LastMessage: latest[id]})
	}

	return conversations, nil
}

func ListDirectMessages(ctx context.Context, workspaceID, userID, partnerID uuid.UUID, page Page) ([]MessageView, error) {
	query := db.DB.WithContext(ctx).
		Where("workspace_id = ? AND recipient_id IS NOT NULL", workspaceID).
		Where("(user_id = ? AND recipient_id = ?) OR (user_id = ? AND recipient_id = ?)", userID, partnerID, partnerID, userID)

	return listMessages(query, page)
}

// SendDirectMessage requires the recipient to be a member of the workspace.
func SendDirectMessage(ctx context.Context, workspaceID uuid.UUID, sender models.User, recipientID uuid.UUID, content string) (MessageView, error) {
	content, err := validateContent(content)
	if err != nil {
		return MessageView{}, err
	}

	if recipientID == sender.ID {
		return MessageView{}, invalidf("cannot send a direct message to yourself")
	}

	if _, err := GetMembership(ctx, workspaceID, recipientID); err != nil {
		if isNotFound(err) {
			return MessageView{}, invalidf("recipient is not a member of this workspace")
		}
		return MessageView{}, err
	}

	message := models.Message{
		WorkspaceID: workspaceID,
		UserID:      sender.ID,
		RecipientID: &recipientID,
		Content:     content,
	}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return fmt.Errorf("failed to send direct message: %w", err)
		}

		text := fmt.Sprintf("New message from %s", sender.Name)
		return notify(tx, []uuid.UUID{recipientID}, &sender.ID, &workspaceID, models.NotificationDirectMessage, text)
	})
	if err != nil {
		return MessageView{}, err
	}

	message.Author = &sender
	return newMessageView(message), nil
}

// SearchRecipients backs the new-message search. A leading '#' limits the
// search to channels and '@' to members.
func SearchRecipients(ctx context.Context, workspaceID uuid.UUID, query string) (Recipients, error) {
	result := Recipients{Channels: []models.Channel{}, Members: []models.User{}}

	query = strings.ToLower(strings.TrimSpace(query))
	wantChannels, wantMembers := true, true

	switch {
	case strings.HasPrefix(query, "#"):
		wantMembers = false
		query = query[1:]
	case strings.HasPrefix(query, "@"):
		wantChannels = false
		query = query[1:]
	}

	if wantChannels {
		err := db.DB.WithContext(ctx).
			Where("workspace_id = ? AND LOWER(name) LIKE ?"+likeEscape, workspaceID, "%"+escapeLike(query)+"%").
			Order("name").
			Limit(MaxRecipientResults).
			Find(&result.Channels).Error
		if err != nil {
			return result, fmt.Errorf("failed to search channels: %w", err)
		}
	}

	if wantMembers {
		members, err := ListMembers(ctx, workspaceID)
		if err != nil {
			return result, err
		}

		for _, m := range members {
			if m.User == nil {
				continue
			}
			if strings.Contains(strings.ToLower(m.User.Name), query) || strings.Contains(emailLocalPart(m.User.Email), query) {
				result.Members = append(result.Members, *m.User)
			}
			if len(result.Members) == MaxRecipientResults {
				break
			}
		}
	}

	return result, nil
}
