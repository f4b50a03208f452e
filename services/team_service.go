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

// TeamService validates and mutates teams and memberships. As with
// tasks, every mutation appends its audit entry transactionally and
// notifies the team's subscribers after commit.
type TeamService struct {
	db          *gorm.DB
	activities  *ActivityService
	broadcaster Broadcaster
	logger      *logrus.Entry
}

func NewTeamService(db *gorm.DB, activities *ActivityService, broadcaster Broadcaster, logger *logrus.Logger) *TeamService {
	return &TeamService{
		db:          db,
		activities:  activities,
		broadcaster: broadcaster,
		logger:      logger.WithField("component", "team-service"),
	}
}

type CreateTeamInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Members     []uint `json:"members"`
}

// TeamPatch is the whitelisted partial update for a team.
type TeamPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

// normalize trims the name before validation, so a whitespace-only
// name cannot slip past the length check.
func (p *TeamPatch) normalize() error {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return NewValidationError("name cannot be empty")
		}
		p.Name = &trimmed
	}
	return nil
}

func (p *TeamPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	return changes
}

type AddMemberInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=member lead"`
}

// TeamSummary is a team enriched with aggregate counts.
type TeamSummary struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedBy      uint      `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	MemberCount    int64     `json:"member_count"`
	TaskCount      int64     `json:"task_count"`
	CompletedTasks int64     `json:"completed_tasks"`
}

// TeamMemberDetail is a membership row joined with the user's profile.
type TeamMemberDetail struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Avatar   *string   `json:"avatar"`
	TeamRole string    `json:"team_role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamDetail is the full team view: counts plus member and task lists.
type TeamDetail struct {
	TeamSummary
	Members []TeamMemberDetail `json:"members"`
	Tasks   []TaskDetail       `json:"tasks"`
}

// Create persists the team, inserts the creator as lead and the given
// users as members, and appends a "created" audit entry.
func (s *TeamService) Create(actorID uint, input CreateTeamInput) (*TeamSummary, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, NewValidationError(err.Error())
	}

	team := models.Team{
		Name:        input.Name,
		Description: input.Description,
		CreatedBy:   actorID,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(&models.TeamMember{
		TeamID: team.ID,
		UserID: actorID,
		Role:   models.TeamRoleLead,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// The creator already has a lead row; repeated ids are inserted once.
	seen := map[uint]bool{actorID: true}
	for _, memberID := range input.Members {
		if seen[memberID] {
			continue
		}
		seen[memberID] = true
		if err := tx.Create(&models.TeamMember{
			TeamID: team.ID,
			UserID: memberID,
			Role:   models.TeamRoleMember,
		}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	description := fmt.Sprintf("Created team %q", team.Name)
	if err := s.activities.Record(tx, actorID, &team.ID, nil, models.ActionCreated, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	summary, err := s.summarize(&team)
	if err != nil {
		return nil, err
	}

	s.notifyTeamChanged(team.ID, summary)
	return summary, nil
}

// List returns all teams with their aggregate counts, newest first.
func (s *TeamService) List() ([]TeamSummary, error) {
	var teams []models.Team
	if err := s.db.Order("created_at DESC, id DESC").Find(&teams).Error; err != nil {
		return nil, err
	}

	summaries := make([]TeamSummary, 0, len(teams))
	for i := range teams {
		summary, err := s.summarize(&teams[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Get returns the team with counts, its member list and its task list.
func (s *TeamService) Get(id uint) (*TeamDetail, error) {
	var team models.Team
	if err := s.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Team")
		}
		return nil, err
	}

	summary, err := s.summarize(&team)
	if err != nil {
		return nil, err
	}

	var members []TeamMemberDetail
	err = s.db.Table("team_members").
		Select(`users.id, users.name, users.email, users.role, users.avatar,
			team_members.role AS team_role, team_members.joined_at`).
		Joins("JOIN users ON users.id = team_members.user_id AND users.deleted_at IS NULL").
		Where("team_members.team_id = ?", id).
		Order("team_members.joined_at ASC, team_members.id ASC").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}

	var tasks []TaskDetail
	err = s.db.Model(&models.Task{}).
		Select(`tasks.*,
			assignee.name AS assignee_name,
			assignee.avatar AS assignee_avatar`).
		Joins("LEFT JOIN users assignee ON assignee.id = tasks.assignee_id AND assignee.deleted_at IS NULL").
		Where("tasks.team_id = ?", id).
		Order("tasks.created_at DESC, tasks.id DESC").
		Scan(&tasks).Error
	if err != nil {
		return nil, err
	}

	return &TeamDetail{
		TeamSummary: *summary,
		Members:     members,
		Tasks:       tasks,
	}, nil
}

// Update applies the non-nil patch fields and appends an "updated"
// audit entry.
func (s *TeamService) Update(actorID, id uint, patch TeamPatch) (*TeamSummary, error) {
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

	var team models.Team
	if err := s.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Team")
		}
		return nil, err
	}
	oldName := team.Name

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Model(&team).Updates(changes).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	description := fmt.Sprintf("Updated team %q", oldName)
	if err := s.activities.Record(tx, actorID, &team.ID, nil, models.ActionUpdated, description); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := s.db.First(&team, id).Error; err != nil {
		return nil, err
	}
	summary, err := s.summarize(&team)
	if err != nil {
		return nil, err
	}

	s.notifyTeamChanged(team.ID, summary)
	return summary, nil
}

// AddMember inserts a membership row for the user.
func (s *TeamService) AddMember(actorID, teamID uint, input AddMemberInput) error {
	if err := utils.ValidateStruct(input); err != nil {
		return NewValidationError(err.Error())
	}
	if input.Role == "" {
		input.Role = models.TeamRoleMember
	}

	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("Team")
		}
		return err
	}

	var user models.User
	if err := s.db.First(&user, input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("User")
		}
		return err
	}

	var existing int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, input.UserID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return NewConflictError("User is already a member of this team")
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Create(&models.TeamMember{
		TeamID: teamID,
		UserID: input.UserID,
		Role:   input.Role,
	}).Error; err != nil {
		tx.Rollback()
		// A concurrent add for the same pair passes the pre-check and
		// trips the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return NewConflictError("User is already a member of this team")
		}
		return err
	}

	description := fmt.Sprintf("Added %s to team", user.Name)
	if err := s.activities.Record(tx, actorID, &teamID, nil, models.ActionMemberAdded, description); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.notifyTeamChanged(teamID, map[string]interface{}{
		"id":      teamID,
		"action":  models.ActionMemberAdded,
		"user_id": input.UserID,
	})
	return nil
}

// RemoveMember deletes the membership row. Membership rows are hard
// rows, so the pair can be re-added later.
func (s *TeamService) RemoveMember(actorID, teamID, userID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	result := tx.Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamMember{})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return NewNotFoundError("Member")
	}

	if err := s.activities.Record(tx, actorID, &teamID, nil, models.ActionMemberRemoved, "Removed member from team"); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.notifyTeamChanged(teamID, map[string]interface{}{
		"id":      teamID,
		"action":  models.ActionMemberRemoved,
		"user_id": userID,
	})
	return nil
}

// Delete removes the team row. Tasks and membership rows referencing it
// are left in place; enriched reads simply stop resolving the team name.
func (s *TeamService) Delete(actorID, id uint) error {
	var team models.Team
	if err := s.db.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("Team")
		}
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Delete(&team).Error; err != nil {
		tx.Rollback()
		return err
	}

	description := fmt.Sprintf("Deleted team %q", team.Name)
	if err := s.activities.Record(tx, actorID, nil, nil, models.ActionDeleted, description); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.notifyTeamChanged(id, map[string]interface{}{
		"id":     id,
		"action": models.ActionDeleted,
	})
	return nil
}

// summarize attaches the aggregate counts to a team row.
func (s *TeamService) summarize(team *models.Team) (*TeamSummary, error) {
	summary := TeamSummary{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatedBy:   team.CreatedBy,
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}

	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ?", team.ID).
		Count(&summary.MemberCount).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Task{}).
		Where("team_id = ?", team.ID).
		Count(&summary.TaskCount).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Task{}).
		Where("team_id = ? AND status = ?", team.ID, models.StatusDone).
		Count(&summary.CompletedTasks).Error; err != nil {
		return nil, err
	}

	return &summary, nil
}

func (s *TeamService) notifyTeamChanged(teamID uint, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.PublishTeamChanged(teamID, payload)
}
