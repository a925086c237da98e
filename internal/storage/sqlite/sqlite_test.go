package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/storage/sqlite"
)

func newRepo(t *testing.T, dbPath string) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: dbPath,
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{})
	assert.Error(t, err)
}

func TestRepositoryEvents(t *testing.T) {
	createdAt := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		dbPath  func(t *testing.T) string
		actions func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error
		expErr  bool
	}{
		"Appending an event without task should fail.": {
			dbPath: func(t *testing.T) string { return sqlite.MemoryDBPath },
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				err := repo.AppendEvent(ctx, model.Event{Kind: model.EventKindCreated})
				assert.True(t, errors.Is(err, model.ErrNotValid))
				return err
			},
			expErr: true,
		},

		"Events should be stored with a per task sequence (memory).": {
			dbPath: func(t *testing.T) string { return sqlite.MemoryDBPath },
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.AppendEvent(ctx, model.Event{TaskID: "T1", Kind: model.EventKindCreated, Status: model.TaskStatusCreating, CreatedAt: createdAt}))
				require.NoError(t, repo.AppendEvent(ctx, model.Event{TaskID: "T2", Kind: model.EventKindCreated, CreatedAt: createdAt.Add(time.Second)}))
				require.NoError(t, repo.AppendEvent(ctx, model.Event{TaskID: "T1", Kind: model.EventKindFailed, Status: model.TaskStatusFailed, Message: "disk full", CreatedAt: createdAt.Add(2 * time.Second)}))

				evs, err := repo.ListEvents(ctx, "T1")
				require.NoError(t, err)
				require.Len(t, evs, 2)
				assert.Equal(t, 1, evs[0].Sequence)
				assert.Equal(t, model.TaskStatusCreating, evs[0].Status)
				assert.Equal(t, createdAt, evs[0].CreatedAt)
				assert.Equal(t, 2, evs[1].Sequence)
				assert.Equal(t, model.EventKindFailed, evs[1].Kind)
				assert.Equal(t, "disk full", evs[1].Message)
				assert.NotEmpty(t, evs[1].ID)

				all, err := repo.ListAllEvents(ctx)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, "T1", all[0].TaskID)
				assert.Equal(t, "T2", all[1].TaskID)
				assert.Equal(t, "T1", all[2].TaskID)
				return nil
			},
		},

		"Events should be stored on a database file.": {
			dbPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "journal", "test.db") },
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.AppendEvent(ctx, model.Event{TaskID: "T1", Kind: model.EventKindCreated}))
				require.NoError(t, repo.AppendEvent(ctx, model.Event{TaskID: "T1", Kind: model.EventKindCancelled}))

				evs, err := repo.ListEvents(ctx, "T1")
				require.NoError(t, err)
				require.Len(t, evs, 2)
				assert.Equal(t, model.EventKindCancelled, evs[1].Kind)
				return nil
			},
		},

		"Listing an unknown task should return nothing.": {
			dbPath: func(t *testing.T) string { return sqlite.MemoryDBPath },
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				evs, err := repo.ListEvents(ctx, "missing")
				require.NoError(t, err)
				assert.Empty(t, evs)
				return nil
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t, test.dbPath(t))

			err := test.actions(context.Background(), t, repo)

			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepositoryReopenKeepsEvents(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: dbPath})
	require.NoError(err)
	require.NoError(repo.AppendEvent(ctx, model.Event{TaskID: "T1", Kind: model.EventKindCreated}))
	require.NoError(repo.Close())

	repo = newRepo(t, dbPath)
	evs, err := repo.ListEvents(ctx, "T1")
	require.NoError(err)
	require.Len(evs, 1)
}
