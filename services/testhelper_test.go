package services

import (
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskflow/config"
	"taskflow/models"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateDB(db))
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeBroadcaster records published events for assertions.
type fakeBroadcaster struct {
	taskEvents []fakeEvent
	teamEvents []fakeEvent
}

type fakeEvent struct {
	TeamID  uint
	Payload interface{}
}

func (f *fakeBroadcaster) PublishTaskChanged(teamID uint, payload interface{}) {
	f.taskEvents = append(f.taskEvents, fakeEvent{TeamID: teamID, Payload: payload})
}

func (f *fakeBroadcaster) PublishTeamChanged(teamID uint, payload interface{}) {
	f.teamEvents = append(f.teamEvents, fakeEvent{TeamID: teamID, Payload: payload})
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedAdmin(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleAdmin,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedTeam(t *testing.T, db *gorm.DB, name string, createdBy uint) *models.Team {
	t.Helper()

	team := models.Team{Name: name, CreatedBy: createdBy}
	require.NoError(t, db.Create(&team).Error)
	return &team
}

func seedTask(t *testing.T, db *gorm.DB, title, priority, status string, teamID, assigneeID *uint, createdBy uint) *models.Task {
	t.Helper()

	task := models.Task{
		Title:      title,
		Priority:   priority,
		Status:     status,
		TeamID:     teamID,
		AssigneeID: assigneeID,
		CreatedBy:  createdBy,
	}
	require.NoError(t, db.Create(&task).Error)
	return &task
}

func daysAgo(n int) *time.Time {
	t := time.Now().AddDate(0, 0, -n)
	return &t
}
