// Package pages holds the screens of the app. Each page owns its state,
// catches its own errors and reports them as transient notifications;
// nothing here returns an error the shell has to show.
package pages

import (
	"context"
	"io"
)

// Level is the severity of a notification.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notifier shows transient messages.
type Notifier interface {
	Notify(level Level, msg string)
}

// Navigator moves the app to another path.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Page is one screen.
type Page interface {
	// Enter runs when the page becomes active.
	Enter(ctx context.Context)
	// Leave runs when another page replaces it.
	Leave()
	// Render writes the page in the active locale.
	Render(w io.Writer)
}

// Translator renders catalog messages.
type Translator interface {
	T(key string, vars ...map[string]string) string
}
