package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/autonotions/autonotions/internal/models"
	"go.uber.org/zap"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue  = 2201331 // #2196F3 - channel created
	ColorGreen = 5025616 // #4CAF50 - card done

	WebhookUsername = "Autonotions"
)

// WebhookClient posts every webhook; tests swap it.
var WebhookClient = &http.Client{Timeout: 10 * time.Second}

// WebhookEvent is one workspace event rendered for both targets.
type WebhookEvent struct {
	Title       string
	Description string
	Fields      [][2]string
	Color       int
	SlackColor  string
	Emoji       string
}

func ChannelCreatedEvent(channel models.Channel, creator models.User) WebhookEvent {
	description := channel.Description
	if description == "" {
		description = "No description"
	}

	return WebhookEvent{
		Title:       fmt.Sprintf("New channel #%s", channel.Name),
		Description: description,
		Fields: [][2]string{
			{"Created by", creator.Name},
		},
		Color:      ColorBlue,
		SlackColor: "#2196F3",
		Emoji:      ":speech_balloon:",
	}
}

func CardCompletedEvent(board models.KanbanBoard, card models.KanbanCard, actor models.User) WebhookEvent {
	return WebhookEvent{
		Title:       fmt.Sprintf("Card done: %s", card.Title),
		Description: fmt.Sprintf("%s moved a card to %s on %s.", actor.Name, DoneColumnTitle, board.Title),
		Fields: [][2]string{
			{"Board", board.Title},
			{"Priority", card.Priority},
			{"Moved by", actor.Name},
		},
		Color:      ColorGreen,
		SlackColor: "good",
		Emoji:      ":white_check_mark:",
	}
}

// SendWorkspaceWebhooks posts the event to every webhook configured on the
// workspace. A failing target does not stop delivery to the others.
func SendWorkspaceWebhooks(workspace models.Workspace, event WebhookEvent) error {
	var errs []error

	if workspace.DiscordWebhook != "" {
		if err := sendDiscordWebhook(workspace.DiscordWebhook, discordPayload(workspace, event)); err != nil {
			errs = append(errs, fmt.Errorf("discord: %w", err))
		}
	}

	if workspace.SlackWebhook != "" {
		if err := sendSlackWebhook(workspace.SlackWebhook, slackPayload(workspace, event)); err != nil {
			errs = append(errs, fmt.Errorf("slack: %w", err))
		}
	}

	return errors.Join(errs...)
}

// SendWorkspaceWebhooksAsync runs SendWorkspaceWebhooks in the background and logs failures.
func SendWorkspaceWebhooksAsync(workspace models.Workspace, event WebhookEvent) {
	if workspace.DiscordWebhook == "" && workspace.SlackWebhook == "" {
		return
	}

	go func() {
		if err := SendWorkspaceWebhooks(workspace, event); err != nil {
			zap.L().Warn("webhook delivery failed",
				zap.String("workspace_id", workspace.ID.String()),
				zap.String("event", event.Title),
				zap.Error(err),
			)
		}
	}()
}

func discordPayload(workspace models.Workspace, event WebhookEvent) DiscordWebhookRequest {
	fields := make([]DiscordWebhookField, 0, len(event.Fields))
	for _, f := range event.Fields {
		fields = append(fields, DiscordWebhookField{Name: f[0], Value: f[1], Inline: true})
	}

	return DiscordWebhookRequest{
		Username: WebhookUsername,
		Embeds: []DiscordEmbed{
			{
				Title:       event.Title,
				Description: event.Description,
				Color:       event.Color,
				Fields:      fields,
				Footer: &DiscordFooter{
					Text: fmt.Sprintf("Workspace: %s", workspace.Name),
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
}

func slackPayload(workspace models.Workspace, event WebhookEvent) SlackWebhookRequest {
	fields := make([]SlackField, 0, len(event.Fields))
	for _, f := range event.Fields {
		fields = append(fields, SlackField{Title: f[0], Value: f[1], Short: true})
	}

	return SlackWebhookRequest{
		Username:  WebhookUsername,
		IconEmoji: event.Emoji,
		Text:      fmt.Sprintf("%s *%s*", event.Emoji, event.Title),
		Attachments: []SlackAttachment{
			{
				Color:     event.SlackColor,
				Title:     event.Title,
				Text:      event.Description,
				Fields:    fields,
				Footer:    fmt.Sprintf("Workspace: %s", workspace.Name),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := WebhookClient.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := WebhookClient.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
