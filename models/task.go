package models

import (
	"time"

	"gorm.io/gorm"
)

// Task priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses. No transition graph is enforced: a task may move from
// any status to any other.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// Task represents a unit of work with priority, status and optional
// assignee/team.
type Task struct {
	gorm.Model
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Priority    string     `gorm:"default:'medium'" json:"priority"`   // low, medium, high
	Status      string     `gorm:"default:'todo';index" json:"status"` // todo, in-progress, review, done
	AssigneeID  *uint      `gorm:"index" json:"assignee_id"`
	TeamID      *uint      `gorm:"index" json:"team_id"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   uint       `gorm:"index" json:"created_by"`

	// Relations
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"-"`
	Team     *Team `gorm:"foreignKey:TeamID" json:"-"`
}
