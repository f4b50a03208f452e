package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/utils"
)

func newUserFixture(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewUserService(db, newTestLogger()), db
}

func TestUserRegister(t *testing.T) {
	t.Run("hashes the password and lowercases the email", func(t *testing.T) {
		service, _ := newUserFixture(t)

		user, err := service.Register(RegisterInput{
			Name:     "Alice",
			Email:    "Alice@Example.COM",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		service, _ := newUserFixture(t)

		_, err := service.Register(RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password1"})
		require.NoError(t, err)

		_, err = service.Register(RegisterInput{Name: "Other", Email: "ALICE@example.com", Password: "password2"})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("soft-deleted account's email still conflicts", func(t *testing.T) {
		service, db := newUserFixture(t)
		ghost := seedUser(t, db, "Ghost", "ghost@example.com")
		require.NoError(t, db.Delete(ghost).Error)

		// The deleted row is invisible to the pre-check but still holds
		// the unique index; the insert error must surface as a conflict.
		_, err := service.Register(RegisterInput{Name: "New", Email: "ghost@example.com", Password: "password1"})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("short password is rejected", func(t *testing.T) {
		service, _ := newUserFixture(t)

		_, err := service.Register(RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "short"})
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestUserAuthenticate(t *testing.T) {
	service, _ := newUserFixture(t)

	_, err := service.Register(RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := service.Authenticate("Alice@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Authenticate("alice@example.com", "wrong")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Authenticate("nobody@example.com", "whatever")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})
}

func TestUserGet(t *testing.T) {
	service, db := newUserFixture(t)
	logger := newTestLogger()
	teams := NewTeamService(db, NewActivityService(db, logger), nil, logger)

	alice := seedUser(t, db, "Alice", "alice@example.com")
	team, err := teams.Create(alice.ID, CreateTeamInput{Name: "Core"})
	require.NoError(t, err)
	seedTask(t, db, "Assigned", models.PriorityLow, models.StatusTodo, &team.ID, &alice.ID, alice.ID)

	detail, err := service.Get(alice.ID)
	require.NoError(t, err)
	require.Len(t, detail.Teams, 1)
	assert.Equal(t, "Core", detail.Teams[0].Name)
	assert.Equal(t, models.TeamRoleLead, detail.Teams[0].TeamRole)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, "Assigned", detail.Tasks[0].Title)

	_, err = service.Get(9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUserUpdate(t *testing.T) {
	t.Run("email taken by another user", func(t *testing.T) {
		service, db := newUserFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")
		seedUser(t, db, "Bob", "bob@example.com")

		_, err := service.Update(alice.ID, UserPatch{Email: utils.Pointer("bob@example.com")})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("applies patch fields", func(t *testing.T) {
		service, db := newUserFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		user, err := service.Update(alice.ID, UserPatch{
			Name: utils.Pointer("Alicia"),
			Role: utils.Pointer(models.RoleAdmin),
		})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", user.Name)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("whitespace-only name or email is rejected", func(t *testing.T) {
		service, db := newUserFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		_, err := service.Update(alice.ID, UserPatch{Name: utils.Pointer("   ")})
		assert.True(t, errors.Is(err, ErrValidation))

		_, err = service.Update(alice.ID, UserPatch{Email: utils.Pointer("  ")})
		assert.True(t, errors.Is(err, ErrValidation))

		kept, err := service.Get(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", kept.Name)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		service, db := newUserFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		_, err := service.Update(alice.ID, UserPatch{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No valid fields to update")
	})
}

func TestUserDelete(t *testing.T) {
	t.Run("last admin cannot be deleted", func(t *testing.T) {
		service, db := newUserFixture(t)
		admin := seedAdmin(t, db, "Root", "root@example.com")

		err := service.Delete(admin.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConflict))
		assert.Contains(t, err.Error(), "Cannot delete the last admin user")
	})

	t.Run("admin can go when another remains", func(t *testing.T) {
		service, db := newUserFixture(t)
		first := seedAdmin(t, db, "Root", "root@example.com")
		seedAdmin(t, db, "Backup", "backup@example.com")

		require.NoError(t, service.Delete(first.ID))
	})

	t.Run("regular user deletes freely", func(t *testing.T) {
		service, db := newUserFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		require.NoError(t, service.Delete(alice.ID))

		_, err := service.Get(alice.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
