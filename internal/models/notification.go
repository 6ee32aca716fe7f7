package models

import "github.com/google/uuid"

type Notification struct {
	BaseModel

	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	SenderID    *uuid.UUID `gorm:"type:uuid" json:"sender_id,omitempty"` // nil for system notifications
	WorkspaceID *uuid.UUID `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	Type        string     `gorm:"not null" json:"type"`
	Message     string     `gorm:"not null" json:"message"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`

	// Relationships
	Recipient *User `gorm:"foreignKey:RecipientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	NotificationMention       = "mention"
	NotificationDirectMessage = "direct_message"
	NotificationInvitation    = "invitation"
	NotificationReminder      = "reminder"
)
