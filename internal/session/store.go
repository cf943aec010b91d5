// Package session persists the client-local session state: the bearer
// token, the cached username and avatar URL, and the chosen locale.
package session

import (
	"context"
	"fmt"
	"sync"
)

// Local storage keys.
const (
	KeyToken     = "token"
	KeyUsername  = "username"
	KeyAvatarURL = "avatarUrl"
	KeyLocale    = "locale"
)

// KV is the key-value storage the session is kept in.
type KV interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Store reads and writes session values. Reads go to the backing KV every
// time so two stores over the same database agree.
type Store struct {
	mu sync.Mutex
	kv KV
}

// NewStore creates a Store backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Token returns the stored session token, or "" when signed out.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.get(ctx, KeyToken)
}

// HasToken reports whether a session token is present. Storage errors
// count as absent.
func (s *Store) HasToken(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}

// SetSession stores the token and the cached username together.
func (s *Store) SetSession(ctx context.Context, token, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.SetItem(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.kv.SetItem(ctx, KeyUsername, username); err != nil {
		return fmt.Errorf("store username: %w", err)
	}
	return nil
}

// Clear removes the token, username and avatar URL. The locale survives.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range []string{KeyToken, KeyUsername, KeyAvatarURL} {
		if err := s.kv.RemoveItem(ctx, k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

func (s *Store) Username(ctx context.Context) (string, error) {
	return s.get(ctx, KeyUsername)
}

func (s *Store) AvatarURL(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAvatarURL)
}

func (s *Store) SetAvatarURL(ctx context.Context, url string) error {
	return s.set(ctx, KeyAvatarURL, url)
}

func (s *Store) Locale(ctx context.Context) (string, error) {
	return s.get(ctx, KeyLocale)
}

func (s *Store) SetLocale(ctx context.Context, locale string) error {
	return s.set(ctx, KeyLocale, locale)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.kv.GetItem(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.SetItem(ctx, key, value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
