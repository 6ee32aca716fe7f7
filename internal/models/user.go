package models

type User struct {
	BaseModel

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `gorm:"not null" json:"name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PasswordHash string `json:"-"` // empty for users managed by an external auth provider
}
