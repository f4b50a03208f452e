package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskflow/models"
)

// ActivityService is the append-only recorder behind the audit trail.
// Entries are written inside the transaction of the mutation they
// describe and are never updated or deleted.
type ActivityService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewActivityService(db *gorm.DB, logger *logrus.Logger) *ActivityService {
	return &ActivityService{
		db:     db,
		logger: logger.WithField("component", "activity-service"),
	}
}

// ActivityEntry is an audit row joined with display names for the feed.
type ActivityEntry struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	TeamID      *uint     `json:"team_id"`
	TaskID      *uint     `json:"task_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    *string   `json:"user_name"`
	TaskTitle   *string   `json:"task_title"`
	TeamName    *string   `json:"team_name"`
}

// ActionCount is one bucket of the action histogram.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// Record appends one audit entry using the caller's transaction handle,
// so the entry commits or rolls back together with the mutation it
// describes.
func (s *ActivityService) Record(tx *gorm.DB, actorID uint, teamID, taskID *uint, action, description string) error {
	activity := models.Activity{
		UserID:      actorID,
		TeamID:      teamID,
		TaskID:      taskID,
		Action:      action,
		Description: description,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"action":  action,
		"user_id": actorID,
	}).Debug("activity recorded")
	return nil
}

// Feed returns the most recent entries, newest first. Ties within the
// same timestamp are broken by insertion order.
func (s *ActivityService) Feed(limit int) ([]ActivityEntry, error) {
	var entries []ActivityEntry
	err := s.db.Table("activities").
		Select(`activities.*,
			users.name AS user_name,
			tasks.title AS task_title,
			teams.name AS team_name`).
		Joins("LEFT JOIN users ON users.id = activities.user_id").
		Joins("LEFT JOIN tasks ON tasks.id = activities.task_id").
		Joins("LEFT JOIN teams ON teams.id = activities.team_id").
		Order("activities.created_at DESC, activities.id DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Summary returns the count of entries per action tag over the lookback
// window.
func (s *ActivityService) Summary(days int) ([]ActionCount, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var summary []ActionCount
	err := s.db.Model(&models.Activity{}).
		Select("action, COUNT(*) AS count").
		Where("created_at >= ?", cutoff).
		Group("action").
		Order("count DESC, action ASC").
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return summary, nil
}
