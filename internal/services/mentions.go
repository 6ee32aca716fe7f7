package services

import (
	"regexp"
	"strings"

	"github.com/autonotions/autonotions/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var mentionPattern = regexp.MustCompile(`(?:^|\s)@([\p{L}\p{N}._+\-]+)`)

// ExtractMentions returns the distinct lower-cased @tokens of content in order of appearance.
func ExtractMentions(content string) []string {
	mentions := []string{}
	seen := make(map[string]bool)

	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		token := strings.ToLower(strings.TrimRight(match[1], ".,!?;:-"))
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		mentions = append(mentions, token)
	}

	return mentions
}

// mentionedMembers resolves tokens against the email local part or first name of workspace members.
func mentionedMembers(tx *gorm.DB, workspaceID uuid.UUID, tokens []string, authorID uuid.UUID) ([]uuid.UUID, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var members []models.WorkspaceMember
	if err := tx.Preload("User").Where("workspace_id = ?", workspaceID).Find(&members).Error; err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		wanted[t] = true
	}

	var ids []uuid.UUID
	for _, m := range members {
		if m.User == nil || m.UserID == authorID {
			continue
		}
		if wanted[emailLocalPart(m.User.Email)] || wanted[firstName(m.User.Name)] {
			ids = append(ids, m.UserID)
		}
	}

	return ids, nil
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	return local
}

func firstName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
