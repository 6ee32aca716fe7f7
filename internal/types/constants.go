package types

import "github.com/google/uuid"

const (
	ContextUserKey   = "user"
	ContextTokenKey  = "access_token"
	ContextMemberKey = "workspace_member"
)

// Refresh hint kinds sent to open workspace pages.
const (
	RefreshChannels      = "channels"
	RefreshMessages      = "messages"
	RefreshKanban        = "kanban"
	RefreshNotes         = "notes"
	RefreshMembers       = "members"
	RefreshWorkspace     = "workspace"
	RefreshNotifications = "notifications"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
