package prefs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Repo is the favorite_lines table.
type Repo interface {
	FavoriteLines(ctx context.Context) ([]string, error)
	ReplaceFavoriteLines(ctx context.Context, lines []string) error
	ClearFavoriteLines(ctx context.Context) error
}

// Opener initializes the embedded database on first use.
type Opener func() (Repo, error)

// StorageInitError reports that the local database could not be opened.
type StorageInitError struct {
	Err error
}

func (e *StorageInitError) Error() string {
	return fmt.Sprintf("local storage unavailable: %v", e.Err)
}

func (e *StorageInitError) Unwrap() error { return e.Err }

// Store loads and saves favorite lines. The database is opened lazily; a
// failed open is retried on the next call.
type Store struct {
	mu     sync.Mutex
	open   Opener
	repo   Repo
	owned  bool
	logger *slog.Logger
}

// NewStore creates a Store that opens its database with open.
func NewStore(open Opener, logger *slog.Logger) *Store {
	return &Store{open: open, logger: logger}
}

// NewStoreWithRepo creates a Store over an already open database.
func NewStoreWithRepo(repo Repo, logger *slog.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

func (s *Store) db() (Repo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return s.repo, nil
	}
	if s.open == nil {
		return nil, &StorageInitError{Err: fmt.Errorf("no database configured")}
	}
	repo, err := s.open()
	if err != nil {
		s.logger.Error("failed to open favorites database", "error", err)
		return nil, &StorageInitError{Err: err}
	}
	s.repo = repo
	s.owned = true
	return repo, nil
}

// Close releases a database the store opened itself. A repo handed to
// NewStoreWithRepo belongs to the caller and is left open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned {
		return nil
	}
	repo := s.repo
	s.repo, s.owned = nil, false
	if c, ok := repo.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Load returns the saved lines.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	repo, err := s.db()
	if err != nil {
		return nil, err
	}
	lines, err := repo.FavoriteLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorite lines: %w", err)
	}
	return lines, nil
}

// SaveAll replaces the saved lines with the set of lines, stored once each
// in enum order. Unknown ids are rejected before anything is written.
func (s *Store) SaveAll(ctx context.Context, lines []string) error {
	sel, err := NewSelection(lines...)
	if err != nil {
		return err
	}
	lines = sel.Lines()
	repo, err := s.db()
	if err != nil {
		return err
	}
	if err := repo.ReplaceFavoriteLines(ctx, lines); err != nil {
		return fmt.Errorf("save favorite lines: %w", err)
	}
	s.logger.Info("favorite lines saved", "count", len(lines))
	return nil
}

// Clear removes every saved line.
func (s *Store) Clear(ctx context.Context) error {
	repo, err := s.db()
	if err != nil {
		return err
	}
	if err := repo.ClearFavoriteLines(ctx); err != nil {
		return fmt.Errorf("clear favorite lines: %w", err)
	}
	s.logger.Info("favorite lines cleared")
	return nil
}
