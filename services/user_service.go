package services

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/utils"
)

// UserService handles account registration, credential checks and user
// management. Deleting the last remaining admin is rejected.
type UserService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewUserService(db *gorm.DB, logger *logrus.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger.WithField("component", "user-service"),
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserPatch is the whitelisted partial update for a user.
type UserPatch struct {
	Name   *string `json:"name" validate:"omitempty,min=2"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Role   *string `json:"role" validate:"omitempty,oneof=user admin"`
	Avatar *string `json:"avatar"`
}

// normalize trims the name and canonicalizes the email before
// validation, so whitespace-only values cannot slip past the length
// checks.
func (p *UserPatch) normalize() error {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return NewValidationError("name cannot be empty")
		}
		p.Name = &trimmed
	}
	if p.Email != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*p.Email))
		if trimmed == "" {
			return NewValidationError("email cannot be empty")
		}
		p.Email = &trimmed
	}
	return nil
}

func (p *UserPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	if p.Email != nil {
		changes["email"] = *p.Email
	}
	if p.Role != nil {
		changes["role"] = *p.Role
	}
	if p.Avatar != nil {
		changes["avatar"] = *p.Avatar
	}
	return changes
}

// UserTeam is a team the user belongs to, with their membership role.
type UserTeam struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeamRole    string    `json:"team_role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// UserDetail is a user with their teams and assigned tasks.
type UserDetail struct {
	models.User
	Teams []UserTeam   `json:"teams"`
	Tasks []TaskDetail `json:"tasks"`
}

// Register creates an account with a bcrypt-hashed password. The email
// must not already be registered.
func (s *UserService) Register(input RegisterInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := utils.ValidateStruct(input); err != nil {
		return nil, NewValidationError(err.Error())
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, NewConflictError("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// A soft-deleted account, or a concurrent registration, passes
		// the pre-check and trips the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("Email already registered")
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return &user, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// List returns all users ordered by name.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns the user with their teams and assigned tasks.
func (s *UserService) Get(id uint) (*UserDetail, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("User")
		}
		return nil, err
	}

	var teams []UserTeam
	err := s.db.Table("teams").
		Select(`teams.id, teams.name, teams.description,
			team_members.role AS team_role, team_members.joined_at`).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ? AND teams.deleted_at IS NULL", id).
		Order("team_members.joined_at ASC, team_members.id ASC").
		Scan(&teams).Error
	if err != nil {
		return nil, err
	}

	var tasks []TaskDetail
	err = s.db.Model(&models.Task{}).
		Select("tasks.*, team.name AS team_name").
		Joins("LEFT JOIN teams team ON team.id = tasks.team_id AND team.deleted_at IS NULL").
		Where("tasks.assignee_id = ?", id).
		Order("tasks.created_at DESC, tasks.id DESC").
		Scan(&tasks).Error
	if err != nil {
		return nil, err
	}

	return &UserDetail{User: user, Teams: teams, Tasks: tasks}, nil
}

// Update applies the non-nil patch fields. Changing the email to one
// already held by another user is a conflict.
func (s *UserService) Update(id uint, patch UserPatch) (*models.User, error) {
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

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("User")
		}
		return nil, err
	}

	if email, ok := changes["email"].(string); ok && email != user.Email {
		var taken int64
		if err := s.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", email, id).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, NewConflictError("Email is already taken by another user")
		}
	}

	if err := s.db.Model(&user).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewConflictError("Email is already taken by another user")
		}
		return nil, err
	}

	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user unless they are the last remaining admin.
func (s *UserService) Delete(id uint) error {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFoundError("User")
		}
		return err
	}

	if user.IsAdmin() {
		var admins int64
		if err := s.db.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&admins).Error; err != nil {
			return err
		}
		if admins <= 1 {
			return NewConflictError("Cannot delete the last admin user")
		}
	}

	return s.db.Delete(&user).Error
}
