package models

import "github.com/google/uuid"

// Message belongs either to a channel or, for direct messages, to a recipient.
type Message struct {
	BaseModel

	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ChannelID   *uuid.UUID `gorm:"type:uuid;index" json:"channel_id,omitempty"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id,omitempty"`
	Content     string     `gorm:"type:text;not null" json:"content"`

	// Relationships
	Author *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author,omitempty"`
}
