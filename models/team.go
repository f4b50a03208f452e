package models

import (
	"time"

	"gorm.io/gorm"
)

// Team member roles
const (
	TeamRoleMember = "member"
	TeamRoleLead   = "lead"
)

// Team represents a named group of users collaborating on tasks
type Team struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatedBy   uint   `gorm:"index" json:"created_by"`

	// Relations
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Tasks   []Task       `gorm:"foreignKey:TeamID" json:"tasks,omitempty"`
}

// TeamMember is the (team, user) relationship record carrying a role.
// Rows are hard-deleted so the unique pair index allows re-adding a
// previously removed member.
type TeamMember struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	TeamID   uint      `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"team_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_team_members_team_user" json:"user_id"`
	Role     string    `gorm:"default:'member'" json:"role"` // member, lead
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Team Team `json:"-"`
	User User `json:"-"`
}
