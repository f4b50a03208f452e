package models

import "gorm.io/gorm"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	Name         string  `gorm:"not null" json:"name"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         string  `gorm:"default:'user'" json:"role"` // user, admin
	Avatar       *string `json:"avatar,omitempty"`

	// Relations
	Memberships   []TeamMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	AssignedTasks []Task       `gorm:"foreignKey:AssigneeID" json:"assigned_tasks,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
