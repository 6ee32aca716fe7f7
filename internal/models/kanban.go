package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type KanbanBoard struct {
	BaseModel

	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Title       string    `gorm:"not null" json:"title"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	Columns []KanbanColumn `gorm:"foreignKey:BoardID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"columns,omitempty"`
}

type KanbanColumn struct {
	BaseModel

	BoardID  uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	Title    string    `gorm:"not null" json:"title"`
	Color    string    `json:"color"`
	Position int       `gorm:"not null;default:0" json:"position"`

	// Relationships
	Cards []KanbanCard `gorm:"foreignKey:ColumnID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"cards"`
}

type KanbanCard struct {
	BaseModel

	BoardID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"board_id"`
	ColumnID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"column_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	AssigneeID  *uuid.UUID     `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Priority    string         `gorm:"not null;default:medium" json:"priority"` // "high", "medium", "low"
	Labels      datatypes.JSON `json:"labels"`
	Position    int            `gorm:"not null;default:0" json:"position"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	RemindedAt  *time.Time     `json:"-"`

	// Relationships
	Assignee *User `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
