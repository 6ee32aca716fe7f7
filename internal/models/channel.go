package models

import "github.com/google/uuid"

type Channel struct {
	BaseModel

	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_channel" json:"workspace_id"`
	Name        string    `gorm:"not null;uniqueIndex:idx_workspace_channel" json:"name"`
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	Messages []Message `gorm:"foreignKey:ChannelID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
