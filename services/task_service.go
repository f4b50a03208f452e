package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/utils"
)

// TaskService validates and mutates tasks. Every successful mutation
// appends exactly one audit entry in the same transaction and notifies
// the affected team's subscribers after commit.
type TaskService struct {
	db          *gorm.DB
	activities  *ActivityService
	broadcaster Broadcaster
	logger      *logrus.Entry
}

func NewTaskService(db *gorm.DB, activities *ActivityService, broadcaster Broadcaster, logger *logrus.Logger) *TaskService {
	return &TaskService{
		db:          db,
		activities:  activities,
		broadcaster: broadcaster,
		logger:      logger.WithField("component", "task-service"),
	}
}

type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in-progress review done"`
	AssigneeID  *uint      `json:"assignee_id"`
	TeamID      *uint      `json:"team_id"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskPatch is the whitelisted partial update for a task. Only non-nil
// fields are applied.
type TaskPatch struct {
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in-progress review done"`
	AssigneeID  *uint      `json:"assignee_id"`
	TeamID      *uint      `json:"team_id"`
	DueDate     *time.Time `json:"due_date"`
}

// normalize trims free-text fields before validation, so a
// whitespace-only title cannot slip past the length check.
func (p *TaskPatch) normalize() error {
	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		if trimmed == "" {
			return NewValidationError("title cannot be empty")
		}
		p.Title = &trimmed
	}
	return nil
}

func (p *TaskPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Priority != nil {
		changes["priority"] = *p.Priority
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.AssigneeID != nil {
		changes["assignee_id"] = *p.AssigneeID
	}
	if p.TeamID != nil {
		changes["team_id"] = *p.TeamID
	}
	if p.DueDate != nil {
		changes["due_date"] = *p.DueDate
	}
	return changes
}

type TaskFilter struct {
	Status     string
	TeamID     *uint
	AssigneeID *uint
}

// TaskDetail is a task joined with assignee/team display fields.
type TaskDetail struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	AssigneeID     *uint      `json:"assignee_id"`
	TeamID         *uint      `json:"team_id"`
	DueDate        *time.Time `json:"due_date"`
	CreatedBy      uint       `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AssigneeName   *string    `json:"assignee_name"`
	AssigneeAvatar *string    `json:"assignee_avatar"`
	TeamName       *string    `json:"team_name"`
	CreatedByName  *string    `json:"created_by_name,omitempty"`
}

type TaskStats struct {
	TotalTasks      int64 `json:"total_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	TodoTasks       int64 `json:"todo_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	ReviewTasks     int64 `json:"review_tasks"`
}

func (s *TaskService) detailQuery() *gorm.DB {
	return s.db.Model(&models.Task{}).
		Select(`tasks.*,
			assignee.name AS assignee_name,
			assignee.avatar AS assignee_avatar,
			team.name AS team_name,
			creator.name AS created_by_name`).
		Joins("LEFT JOIN users assignee ON assignee.id = tasks.assignee_id AND assignee.deleted_at IS NULL").
		Joins("LEFT JOIN teams team ON team.id = tasks.team_id AND team.deleted_at IS NULL").
		Joins("LEFT JOIN users creator ON creator.id = tasks.created_by AND creator.deleted_at IS NULL")
}

// Create persists a new task and appends a "created" audit entry.
// Priority defaults to medium and status to todo when omitted.
func (s *TaskService) Create(actorID uint, input CreateTaskInput) (*TaskDetail, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, NewValidationError(err.Error())
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if input.Status == "" {
		input.Status = models.StatusTodo
	}

	task := models.Task{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		AssigneeID:  input.AssigneeID,
		TeamID:      input.TeamID,
		DueDate:     input.DueDate,
		CreatedBy:   actorID,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Created task %q", task.Title)
	if err := s.activities.Record(tx, actorID, task.TeamID, &task.ID, models.ActionCreated, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	detail, err := s.Get(task.ID)
	if err != nil {
		return nil, err
	}

	s.notifyTaskChanged(detail.TeamID, detail)
	return detail, nil
}

// Get returns the task joined with display fields.
func (s *TaskService) Get(id uint) (*TaskDetail, error) {
	var detail TaskDetail
	err := s.detailQuery().Where("tasks.id = ?", id).Scan(&detail).Error
	if err != nil {
		return nil, err
	}
	if detail.ID == 0 {
		return nil, NewNotFoundError("Task")
	}
	return &detail, nil
}

// List returns tasks newest-created-first, optionally filtered by
// status, team and assignee.
func (s *TaskService) List(filter TaskFilter) ([]TaskDetail, error) {
	query := s.detailQuery()
	if filter.Status != "" {
		query = query.Where("tasks.status = ?", filter.Status)
	}
	if filter.TeamID != nil {
		query = query.Where("tasks.team_id = ?", *filter.TeamID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}

	var tasks []TaskDetail
	if err := query.Order("tasks.created_at DESC, tasks.id DESC").Scan(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies the non-nil patch fields. Only a status transition is
// audited; other field changes are intentionally silent.
func (s *TaskService) Update(actorID, id uint, patch TaskPatch) (*TaskDetail, error) {
	if err := patch.normalize(); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(&patch); err != nil {
		return nil, NewValidationError(err.Error())
	}

	changes := patch.changes()
	if len(changes) == 0 {
		return nil, NewValidationError("No valid fields to update")
	}

	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Task")
		}
		return nil, err
	}
	oldStatus := task.Status

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Model(&task).Updates(changes).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if patch.Status != nil && *patch.Status != oldStatus {
		description := fmt.Sprintf("Changed status from %q to %q", oldStatus, *patch.Status)
		if err := s.activities.Record(tx, actorID, task.TeamID, &task.ID, models.ActionStatusChanged, description); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	detail, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.notifyTaskChanged(detail.TeamID, detail)
	return detail, nil
}

// Delete removes the task and appends a "deleted" audit entry.
func (s *TaskService) Delete(actorID, id uint) error {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("Task")
		}
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Delete(&task).Error; err != nil {
		tx.Rollback()
		return err
	}

	description := fmt.Sprintf("Deleted task %q", task.Title)
	if err := s.activities.Record(tx, actorID, task.TeamID, nil, models.ActionDeleted, description); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.notifyTaskChanged(task.TeamID, map[string]interface{}{
		"id":     task.ID,
		"action": models.ActionDeleted,
	})
	return nil
}

// StatsOverview returns task counts grouped by status.
func (s *TaskService) StatsOverview() (*TaskStats, error) {
	var stats TaskStats
	err := s.db.Model(&models.Task{}).
		Select(`COUNT(*) AS total_tasks,
			COUNT(CASE WHEN status = 'done' THEN 1 END) AS completed_tasks,
			COUNT(CASE WHEN status = 'todo' THEN 1 END) AS todo_tasks,
			COUNT(CASE WHEN status = 'in-progress' THEN 1 END) AS in_progress_tasks,
			COUNT(CASE WHEN status = 'review' THEN 1 END) AS review_tasks`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// notifyTaskChanged fans out after commit; a task without a team has no
// room to notify.
func (s *TaskService) notifyTaskChanged(teamID *uint, payload interface{}) {
	if s.broadcaster == nil || teamID == nil {
		return
	}
	s.broadcaster.PublishTaskChanged(*teamID, payload)
}
