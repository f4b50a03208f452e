package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskflow/models"
	"taskflow/utils"
)

func newTeamFixture(t *testing.T) (*TeamService, *fakeBroadcaster, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	logger := newTestLogger()
	broadcaster := &fakeBroadcaster{}
	activities := NewActivityService(db, logger)
	service := NewTeamService(db, activities, broadcaster, logger)
	return service, broadcaster, db
}

func TestTeamCreate(t *testing.T) {
	t.Run("creator becomes lead, listed members join once", func(t *testing.T) {
		service, broadcaster, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")
		bob := seedUser(t, db, "Bob", "bob@example.com")

		// Creator listed twice: membership must still be single.
		team, err := service.Create(alice.ID, CreateTeamInput{
			Name:    "Platform",
			Members: []uint{bob.ID, alice.ID, bob.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), team.MemberCount)

		detail, err := service.Get(team.ID)
		require.NoError(t, err)
		require.Len(t, detail.Members, 2)
		assert.Equal(t, "Alice", detail.Members[0].Name)
		assert.Equal(t, models.TeamRoleLead, detail.Members[0].TeamRole)
		assert.Equal(t, models.TeamRoleMember, detail.Members[1].TeamRole)

		require.Len(t, broadcaster.teamEvents, 1)
		assert.Equal(t, team.ID, broadcaster.teamEvents[0].TeamID)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		service, _, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		_, err := service.Create(alice.ID, CreateTeamInput{Name: "  "})
		assert.True(t, errors.Is(err, ErrValidation))
	})
}

func TestTeamGet(t *testing.T) {
	service, _, db := newTeamFixture(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")
	bob := seedUser(t, db, "Bob", "bob@example.com")

	team, err := service.Create(alice.ID, CreateTeamInput{Name: "Core", Members: []uint{bob.ID}})
	require.NoError(t, err)

	seedTask(t, db, "Open item", models.PriorityMedium, models.StatusTodo, &team.ID, &bob.ID, alice.ID)

	detail, err := service.Get(team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.MemberCount)
	assert.Equal(t, int64(1), detail.TaskCount)
	assert.Equal(t, int64(0), detail.CompletedTasks)
	require.Len(t, detail.Tasks, 1)
	assert.Equal(t, "Open item", detail.Tasks[0].Title)

	_, err = service.Get(9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTeamUpdate(t *testing.T) {
	service, _, db := newTeamFixture(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")

	team, err := service.Create(alice.ID, CreateTeamInput{Name: "Old name"})
	require.NoError(t, err)

	updated, err := service.Update(alice.ID, team.ID, TeamPatch{Name: utils.Pointer("New name")})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)

	feed, err := service.activities.Feed(10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, models.ActionUpdated, feed[0].Action)
	assert.Equal(t, `Updated team "Old name"`, feed[0].Description)

	_, err = service.Update(alice.ID, team.ID, TeamPatch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No valid fields to update")

	_, err = service.Update(alice.ID, team.ID, TeamPatch{Name: utils.Pointer("   ")})
	assert.True(t, errors.Is(err, ErrValidation))

	kept, err := service.Get(team.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", kept.Name)
}

func TestTeamMembers(t *testing.T) {
	t.Run("duplicate membership is a conflict", func(t *testing.T) {
		service, _, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")
		bob := seedUser(t, db, "Bob", "bob@example.com")

		team, err := service.Create(alice.ID, CreateTeamInput{Name: "Core"})
		require.NoError(t, err)

		require.NoError(t, service.AddMember(alice.ID, team.ID, AddMemberInput{UserID: bob.ID}))

		err = service.AddMember(alice.ID, team.ID, AddMemberInput{UserID: bob.ID})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("unknown team and user", func(t *testing.T) {
		service, _, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")

		err := service.AddMember(alice.ID, 9999, AddMemberInput{UserID: alice.ID})
		assert.True(t, errors.Is(err, ErrNotFound))

		team, err := service.Create(alice.ID, CreateTeamInput{Name: "Core"})
		require.NoError(t, err)

		err = service.AddMember(alice.ID, team.ID, AddMemberInput{UserID: 9999})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("remove and re-add", func(t *testing.T) {
		service, _, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")
		bob := seedUser(t, db, "Bob", "bob@example.com")

		team, err := service.Create(alice.ID, CreateTeamInput{Name: "Core", Members: []uint{bob.ID}})
		require.NoError(t, err)

		require.NoError(t, service.RemoveMember(alice.ID, team.ID, bob.ID))

		summary, err := service.Get(team.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.MemberCount)

		// Membership rows are hard-deleted, so re-adding must succeed.
		require.NoError(t, service.AddMember(alice.ID, team.ID, AddMemberInput{UserID: bob.ID}))
	})

	t.Run("remove nonexistent membership", func(t *testing.T) {
		service, _, db := newTeamFixture(t)
		alice := seedUser(t, db, "Alice", "alice@example.com")
		bob := seedUser(t, db, "Bob", "bob@example.com")

		team, err := service.Create(alice.ID, CreateTeamInput{Name: "Core"})
		require.NoError(t, err)

		err = service.RemoveMember(alice.ID, team.ID, bob.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestTeamDelete(t *testing.T) {
	service, _, db := newTeamFixture(t)
	alice := seedUser(t, db, "Alice", "alice@example.com")

	team, err := service.Create(alice.ID, CreateTeamInput{Name: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(alice.ID, team.ID))

	_, err = service.Get(team.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	feed, err := service.activities.Feed(10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, models.ActionDeleted, feed[0].Action)
	assert.Equal(t, `Deleted team "Doomed"`, feed[0].Description)

	err = service.Delete(alice.ID, team.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
