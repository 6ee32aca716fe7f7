package models

import "github.com/google/uuid"

type Workspace struct {
	BaseModel

	Name           string    `gorm:"not null" json:"name"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	DiscordWebhook string    `json:"discord_webhook,omitempty"`
	SlackWebhook   string    `json:"slack_webhook,omitempty"`

	// Relationships
	Owner         *User             `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Members       []WorkspaceMember `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Channels      []Channel         `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Messages      []Message         `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Boards        []KanbanBoard     `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Notes         []Note            `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Notifications []Notification    `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
