package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/models"
)

func TestActivityFeed(t *testing.T) {
	t.Run("newest first with a limit", func(t *testing.T) {
		db := newTestDB(t)
		service := NewActivityService(db, newTestLogger())
		alice := seedUser(t, db, "Alice", "alice@example.com")

		for i := 0; i < 5; i++ {
			require.NoError(t, service.Record(db, alice.ID, nil, nil, models.ActionCreated, fmt.Sprintf("entry %d", i)))
		}

		feed, err := service.Feed(3)
		require.NoError(t, err)
		require.Len(t, feed, 3)
		assert.Equal(t, "entry 4", feed[0].Description)
		assert.Equal(t, "entry 2", feed[2].Description)
	})

	t.Run("entries survive deletion of their subjects", func(t *testing.T) {
		db := newTestDB(t)
		service := NewActivityService(db, newTestLogger())
		alice := seedUser(t, db, "Alice", "alice@example.com")
		task := seedTask(t, db, "Ephemeral", models.PriorityLow, models.StatusTodo, nil, nil, alice.ID)

		require.NoError(t, service.Record(db, alice.ID, nil, &task.ID, models.ActionCreated, `Created task "Ephemeral"`))

		require.NoError(t, db.Delete(task).Error)
		require.NoError(t, db.Delete(alice).Error)

		feed, err := service.Feed(10)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		require.NotNil(t, feed[0].TaskTitle)
		assert.Equal(t, "Ephemeral", *feed[0].TaskTitle)
		require.NotNil(t, feed[0].UserName)
		assert.Equal(t, "Alice", *feed[0].UserName)
	})
}
