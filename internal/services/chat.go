package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/autonotions/autonotions/db"
	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
	MaxMessageLength    = 4000
	MaxChannelNameLen   = 80
)

type ChannelUpdate struct {
	Name        *string
	Description *string
}

// Page selects the latest Limit messages older than Before.
type Page struct {
	Limit  int
	Before *time.Time
}

type MessageView struct {
	models.Message
	Mentions []string `json:"mentions"`
}

func newMessageView(m models.Message) MessageView {
	return MessageView{Message: m, Mentions: ExtractMentions(m.Content)}
}

// NormalizeChannelName lower-cases, drops a leading '#' and joins words with '-'.
func NormalizeChannelName(name string) string {
	name = strings.TrimLeft(strings.TrimSpace(name), "#")
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func ListChannels(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	channels := []models.Channel{}
	if err := db.DB.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("name").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

func GetChannel(ctx context.Context, workspaceID, channelID uuid.UUID) (models.Channel, error) {
	var channel models.Channel
	err := db.DB.WithContext(ctx).Where("id = ? AND workspace_id = ?", channelID, workspaceID).First(&channel).Error
	if err != nil {
		return channel, lookupErr(err, "channel")
	}
	return channel, nil
}

func CreateChannel(ctx context.Context, workspaceID, creatorID uuid.UUID, name, description string) (models.Channel, error) {
	channel := models.Channel{
		WorkspaceID: workspaceID,
		Name:        NormalizeChannelName(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
	}

	if err := validateChannelName(channel.Name); err != nil {
		return channel, err
	}

	if err := ensureChannelNameFree(ctx, workspaceID, channel.Name, uuid.Nil); err != nil {
		return channel, err
	}

	if err := db.DB.WithContext(ctx).Create(&channel).Error; err != nil {
		return channel, fmt.Errorf("failed to create channel: %w", err)
	}

	return channel, nil
}

// UpdateChannel is allowed to the channel creator and workspace admins.
func UpdateChannel(ctx context.Context, workspaceID, channelID uuid.UUID, actor models.WorkspaceMember, in ChannelUpdate) (models.Channel, error) {
	channel, err := GetChannel(ctx, workspaceID, channelID)
	if err != nil {
		return channel, err
	}

	if !canManageChannel(channel, actor) {
		return channel, forbidden("only the channel creator or an admin can change this channel")
	}

	updates := make(map[string]interface{})

	if in.Name != nil {
		name := NormalizeChannelName(*in.Name)
		if err := validateChannelName(name); err != nil {
			return channel, err
		}
		if name != channel.Name {
			if err := ensureChannelNameFree(ctx, workspaceID, name, channel.ID); err != nil {
				return channel, err
			}
		}
		updates["name"] = name
	}

	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}

	if len(updates) == 0 {
		return channel, invalidf("no valid fields to update")
	}

	if err := db.DB.WithContext(ctx).Model(&channel).Updates(updates).Error; err != nil {
		return channel, fmt.Errorf("failed to update channel: %w", err)
	}

	return GetChannel(ctx, workspaceID, channelID)
}

// DeleteChannel removes the channel and, through the foreign key, its messages.
func DeleteChannel(ctx context.Context, workspaceID, channelID uuid.UUID, actor models.WorkspaceMember) error {
	channel, err := GetChannel(ctx, workspaceID, channelID)
	if err != nil {
		return err
	}

	if !canManageChannel(channel, actor) {
		return forbidden("only the channel creator or an admin can delete this channel")
	}

	if err := db.DB.WithContext(ctx).Delete(&channel).Error; err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return nil
}

func canManageChannel(channel models.Channel, actor models.WorkspaceMember) bool {
	return channel.CreatedBy == actor.UserID || actor.Role == models.RoleAdmin
}

func validateChannelName(name string) error {
	if name == "" {
		return invalidf("channel name is required")
	}
	if utf8.RuneCountInString(name) > MaxChannelNameLen {
		return invalidf("channel name must be at most %d characters", MaxChannelNameLen)
	}
	return nil
}

func ensureChannelNameFree(ctx context.Context, workspaceID uuid.UUID, name string, except uuid.UUID) error {
	var existing models.Channel

	err := db.DB.WithContext(ctx).
		Where("workspace_id = ? AND name = ? AND id <> ?", workspaceID, name, except).
		First(&existing).Error
	if err == nil {
		return conflict(fmt.Sprintf("channel #%s already exists", name))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check channel name: %w", err)
	}

	return nil
}

// ListChannelMessages returns a page of channel messages in ascending time order.
func ListChannelMessages(ctx context.Context, workspaceID, channelID uuid.UUID, page Page) ([]MessageView, error) {
	if _, err := GetChannel(ctx, workspaceID, channelID); err != nil {
		return nil, err
	}

	query := db.DB.WithContext(ctx).Where("channel_id = ?", channelID)
	return listMessages(query, page)
}

func SendChannelMessage(ctx context.Context, workspaceID, channelID uuid.UUID, author models.User, content string) (MessageView, error) {
	content, err := validateContent(content)
	if err != nil {
		return MessageView{}, err
	}

	channel, err := GetChannel(ctx, workspaceID, channelID)
	if err != nil {
		return MessageView{}, err
	}

	message := models.Message{
		WorkspaceID: workspaceID,
		UserID:      author.ID,
		ChannelID:   &channel.ID,
		Content:     content,
	}

	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}

		mentioned, err := mentionedMembers(tx, workspaceID, ExtractMentions(content), author.ID)
		if err != nil {
			return fmt.Errorf("failed to resolve mentions: %w", err)
		}

		text := fmt.Sprintf("%s mentioned you in #%s", author.Name, channel.Name)
		return notify(tx, mentioned, &author.ID, &workspaceID, models.NotificationMention, text)
	})
	if err != nil {
		return MessageView{}, err
	}

	message.Author = &author
	return newMessageView(message), nil
}

// EditMessage is allowed to the author only.
func EditMessage(ctx context.Context, workspaceID, messageID, userID uuid.UUID, content string) (MessageView, error) {
	content, err := validateContent(content)
	if err != nil {
		return MessageView{}, err
	}

	message, err := getMessage(ctx, workspaceID, messageID)
	if err != nil {
		return MessageView{}, err
	}

	if message.UserID != userID {
		return MessageView{}, forbidden("only the author can edit this message")
	}

	if err := db.DB.WithContext(ctx).Model(&message).Update("content", content).Error; err != nil {
		return MessageView{}, fmt.Errorf("failed to edit message: %w", err)
	}
	message.Content = content

	return newMessageView(message), nil
}

// DeleteMessage is allowed to the author and workspace admins.
func DeleteMessage(ctx context.Context, workspaceID, messageID uuid.UUID, actor models.WorkspaceMember) (models.Message, error) {
	message, err := getMessage(ctx, workspaceID, messageID)
	if err != nil {
		return message, err
	}

	if message.UserID != actor.UserID && actor.Role != models.RoleAdmin {
		return message, forbidden("only the author or an admin can delete this message")
	}

	if err := db.DB.WithContext(ctx).Delete(&message).Error; err != nil {
		return message, fmt.Errorf("failed to delete message: %w", err)
	}

	return message, nil
}

func getMessage(ctx context.Context, workspaceID, messageID uuid.UUID) (models.Message, error) {
	var message models.Message
	err := db.DB.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND workspace_id = ?", messageID, workspaceID).
		First(&message).Error
	if err != nil {
		return message, lookupErr(err, "message")
	}
	return message, nil
}

func listMessages(query *gorm.DB, page Page) ([]MessageView, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}

	if page.Before != nil {
		query = query.Where("created_at < ?", *page.Before)
	}

	var messages []models.Message
	if err := query.Preload("Author").Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	views := make([]MessageView, len(messages))
	for i, m := range messages {
		views[len(messages)-1-i] = newMessageView(m)
	}

	return views, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidf("message cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", invalidf("message must be at most %d characters", MaxMessageLength)
	}
	return content, nil
}
