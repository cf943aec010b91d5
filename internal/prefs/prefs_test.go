package prefs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrodiver/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.db")
	return NewStore(func() (Repo, error) {
		db, err := storage.Open(path, testLogger())
		if err != nil {
			return nil, err
		}
		t.Cleanup(func() { db.Close() })
		return db, nil
	}, testLogger())
}

func TestSelection_Toggle(t *testing.T) {
	sel, err := NewSelection("Q", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Q"}, sel.Lines())

	on, err := sel.Toggle("A")
	require.NoError(t, err)
	assert.False(t, on)
	on, err = sel.Toggle("Z")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"Q", "Z"}, sel.Lines())

	_, err = sel.Toggle("7")
	assert.ErrorIs(t, err, ErrUnknownLine)
	assert.Equal(t, 2, sel.Len())

	_, err = NewSelection("A", "X")
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func TestStore_SaveAllReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAll(ctx, []string{"A", "C", "E"}))
	lines, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "E"}, lines)

	require.NoError(t, s.SaveAll(ctx, []string{"G"}))
	lines, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"G"}, lines)

	// Saving an empty selection after a non-empty one leaves nothing.
	require.NoError(t, s.SaveAll(ctx, nil))
	lines, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_SaveAllStoresEachLineOnce(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAll(ctx, []string{"Q", "A", "A", "Q"}))
	lines, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "Q"}, lines)
}

func TestStore_SaveAllUnknownLineKeepsRows(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAll(ctx, []string{"N", "Q"}))

	err := s.SaveAll(ctx, []string{"A", "8"})
	assert.ErrorIs(t, err, ErrUnknownLine)

	lines, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "Q"}, lines)
}

func TestStore_Clear(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveAll(ctx, []string{"R", "W"}))
	require.NoError(t, s.Clear(ctx))

	lines, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestStore_InitFailure(t *testing.T) {
	opens := 0
	s := NewStore(func() (Repo, error) {
		opens++
		return nil, errors.New("disk on fire")
	}, testLogger())

	_, err := s.Load(context.Background())
	var initErr *StorageInitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorContains(t, err, "disk on fire")

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, opens, "a failed open is retried")
}

func TestForm_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := NewForm(openStore(t), testLogger())

	require.NoError(t, f.Load(ctx))
	v := f.View()
	assert.Equal(t, Ready, v.State)
	assert.Empty(t, v.Selection)
	assert.False(t, v.Dirty)

	_, err := f.Toggle("L")
	require.NoError(t, err)
	_, err = f.Toggle("F")
	require.NoError(t, err)
	v = f.View()
	assert.True(t, v.Dirty)
	assert.Empty(t, v.Saved, "toggling is local until save")

	require.NoError(t, f.Save(ctx))
	v = f.View()
	assert.Equal(t, []string{"F", "L"}, v.Saved)
	assert.False(t, v.Dirty)

	require.NoError(t, f.Clear(ctx))
	v = f.View()
	assert.Empty(t, v.Saved)
	assert.Empty(t, v.Selection)
	assert.Equal(t, Ready, v.State)
}

func TestForm_InitFailureEndsFailed(t *testing.T) {
	s := NewStore(func() (Repo, error) { return nil, errors.New("locked") }, testLogger())
	f := NewForm(s, testLogger())

	err := f.Load(context.Background())
	require.Error(t, err)

	v := f.View()
	assert.Equal(t, Failed, v.State)
	var initErr *StorageInitError
	assert.ErrorAs(t, v.Err, &initErr)
}

type closingRepo struct {
	Repo
	closed int
}

func (r *closingRepo) Close() error {
	r.closed++
	return nil
}

func TestStore_CloseReleasesOwnedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	var repo *closingRepo
	s := NewStore(func() (Repo, error) {
		db, err := storage.Open(path, testLogger())
		if err != nil {
			return nil, err
		}
		t.Cleanup(func() { db.Close() })
		repo = &closingRepo{Repo: db}
		return repo, nil
	}, testLogger())

	require.NoError(t, s.Close(), "nothing opened yet")
	require.NoError(t, s.SaveAll(context.Background(), []string{"A"}))
	require.NotNil(t, repo)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, repo.closed)

	borrowed := &closingRepo{}
	require.NoError(t, NewStoreWithRepo(borrowed, testLogger()).Close())
	assert.Zero(t, borrowed.closed, "caller keeps ownership")
}
