package models

import "time"

// Activity action tags written by the services. The column is free-form
// text, these are the values currently produced.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
	ActionMemberAdded   = "member_added"
	ActionMemberRemoved = "member_removed"
)

// Activity is an immutable audit record of a single mutation. It carries
// no updated/deleted columns on purpose: rows are only ever inserted and
// read.
type Activity struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"index" json:"user_id"`
	TeamID      *uint     `gorm:"index" json:"team_id"`
	TaskID      *uint     `gorm:"index" json:"task_id"`
	Action      string    `gorm:"not null" json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	// Relations
	User User  `json:"-"`
	Team *Team `json:"-"`
	Task *Task `json:"-"`
}
