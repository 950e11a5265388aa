package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:user" json:"-"`

	// Viewer-relative fields filled by annotated queries, never persisted.
	IsSubscribed bool  `gorm:"-:migration;->" json:"is_subscribed"`
	RecipesCount int64 `gorm:"-:migration;->" json:"recipes_count"`

	Recipes []Recipe `gorm:"foreignKey:AuthorID" json:"-"`
}

func (u *User) HasAdminRole() bool {
	return u.Role == RoleAdmin
}
