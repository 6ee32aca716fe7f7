package models

import "github.com/google/uuid"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type WorkspaceMember struct {
	BaseModel

	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_workspace_user" json:"user_id"`
	Role        string    `gorm:"not null" json:"role"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
}
