package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"notes-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(start time.Time) *repo {
	r := NewRepository().(*repo)
	current := start
	var mu sync.Mutex
	r.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
	return r
}

func TestRepository_CreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	a, err := r.Create(ctx, model.Note{Title: "A", Content: "a"})
	require.NoError(t, err)
	b, err := r.Create(ctx, model.Note{Title: "B", Content: "b"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}

func TestRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	notes, err := r.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)

	for _, title := range []string{"first", "second", "third"} {
		_, err := r.Create(ctx, model.Note{Title: title, Content: "x"})
		require.NoError(t, err)
	}

	notes, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "third", notes[0].Title)
	assert.Equal(t, "first", notes[2].Title)
}

func TestRepository_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	created, err := r.Create(ctx, model.Note{Title: "A", Content: "B"})
	require.NoError(t, err)

	updated, err := r.Update(ctx, model.Note{ID: created.ID, Title: "C", Content: "D"})
	require.NoError(t, err)

	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "C", updated.Title)
	assert.Equal(t, "D", updated.Content)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	_, err := r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNoteNotFound)

	_, err = r.Update(ctx, model.Note{ID: "missing", Title: "t", Content: "c"})
	assert.ErrorIs(t, err, model.ErrNoteNotFound)

	assert.ErrorIs(t, r.Delete(ctx, "missing"), model.ErrNoteNotFound)
}

func TestRepository_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	note, err := r.Create(ctx, model.Note{Title: "A", Content: "B"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, note.ID))
	assert.ErrorIs(t, r.Delete(ctx, note.ID), model.ErrNoteNotFound)
}

func TestRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRepository().Create(ctx, model.Note{Title: "A", Content: "B"})
	assert.ErrorIs(t, err, context.Canceled)
}
