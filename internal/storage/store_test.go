package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnisight/backend/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAssignsID(t *testing.T) {
	store := openTestStore(t)

	saved, err := store.Append(domain.SessionLog{
		Timestamp:       "2026-02-24T10:00:00Z",
		DurationSeconds: 340,
		TaskType:        domain.TaskRepair,
		Summary:         "Replaced the compressor relay under guidance.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, domain.TaskRepair, saved.TaskType)
}

func TestListRecentNewestFirst(t *testing.T) {
	store := openTestStore(t)

	stamps := []string{
		"2026-02-24T09:00:00Z",
		"2026-02-24T11:00:00Z",
		"2026-02-24T10:00:00Z",
	}
	for i, ts := range stamps {
		_, err := store.Append(domain.SessionLog{
			Timestamp:       ts,
			TaskType:        domain.TaskGeneral,
			Summary:         "session",
			DurationSeconds: i,
		})
		require.NoError(t, err)
	}

	logs, err := store.ListRecent(10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2026-02-24T11:00:00Z", logs[0].Timestamp)
	assert.Equal(t, "2026-02-24T10:00:00Z", logs[1].Timestamp)
	assert.Equal(t, "2026-02-24T09:00:00Z", logs[2].Timestamp)
}

func TestListRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Append(domain.SessionLog{
			Timestamp: "2026-02-24T10:00:00Z",
			TaskType:  domain.TaskAgriculture,
			Summary:   "irrigation check",
		})
		require.NoError(t, err)
	}

	logs, err := store.ListRecent(2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestListRecentEmpty(t *testing.T) {
	store := openTestStore(t)

	logs, err := store.ListRecent(20)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
