// Package shell is the app frame: route table, drawer, app bar and the
// transient notification area.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"metrodiver/internal/i18n"
	"metrodiver/internal/pages"
)

// Paths of the route table.
const (
	PathHome          = "/"
	PathServiceStatus = "/service-status"
	PathLogin         = "/login"
	PathUser          = "/user"
)

// DrawerItem is one entry of the navigation drawer.
type DrawerItem struct {
	LabelKey  string
	Path      string
	Protected bool
}

// Drawer lists the drawer entries in display order.
var Drawer = []DrawerItem{
	{LabelKey: "transitMap", Path: PathHome},
	{LabelKey: "serviceStatus", Path: PathServiceStatus},
	{LabelKey: "userCenter", Path: PathUser, Protected: true},
}

// Notification is a transient message.
type Notification struct {
	ID      string
	Level   pages.Level
	Message string
	Expires time.Time
}

// SessionState is what the shell needs to know about the session.
type SessionState interface {
	HasToken(ctx context.Context) bool
	SetLocale(ctx context.Context, locale string) error
}

// SignOuter ends the session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Shell routes between pages. The protected-path check is a convenience
// for the user; pages behind it still check the session themselves.
type Shell struct {
	bundle  *i18n.Bundle
	session SessionState
	auth    SignOuter
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	routes   map[string]pages.Page
	notFound *pages.NotFound
	path     string
	current  pages.Page
	notes    []Notification
	onRender func()
	unsub    func()
}

// New creates a shell. Register pages before the first Navigate.
func New(bundle *i18n.Bundle, session SessionState, auth SignOuter, notifyTTL time.Duration, logger *slog.Logger) *Shell {
	s := &Shell{
		bundle:   bundle,
		session:  session,
		auth:     auth,
		logger:   logger,
		ttl:      notifyTTL,
		now:      time.Now,
		routes:   map[string]pages.Page{},
		notFound: &pages.NotFound{T: bundle},
	}
	s.unsub = bundle.Subscribe(func(i18n.Locale) { s.rerender() })
	return s
}

// Register binds page to path.
func (s *Shell) Register(path string, page pages.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = page
}

// OnRender registers fn to run whenever the visible frame changes without
// user input, e.g. after a locale switch.
func (s *Shell) OnRender(fn func()) {
	s.mu.Lock()
	s.onRender = fn
	s.mu.Unlock()
}

// Navigate shows the page for path. Unknown paths show the not-found page.
// Going to the user center without a session token shows a warning and
// keeps the current page.
func (s *Shell) Navigate(ctx context.Context, path string) error {
	path = normalize(path)
	if path == PathUser && !s.session.HasToken(ctx) {
		s.logger.Info("navigation blocked: not logged in", "path", path)
		s.Notify(pages.Warning, s.bundle.T("notLoggedIn"))
		return nil
	}

	s.mu.Lock()
	page, ok := s.routes[path]
	if !ok {
		s.notFound.Path = path
		page = s.notFound
	}
	prev := s.current
	s.current, s.path = page, path
	s.mu.Unlock()

	if prev != nil && prev != page {
		prev.Leave()
	}
	page.Enter(ctx)
	s.logger.Debug("navigated", "path", path, "found", ok)
	return nil
}

// Path returns the current path.
func (s *Shell) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Current returns the active page.
func (s *Shell) Current() pages.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Notify shows msg until the notification TTL passes.
func (s *Shell) Notify(level pages.Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: msg,
		Expires: s.now().Add(s.ttl),
	})
}

// Notifications returns the unexpired notifications, oldest first, and
// drops expired ones.
func (s *Shell) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	live := s.notes[:0]
	for _, n := range s.notes {
		if now.Before(n.Expires) {
			live = append(live, n)
		}
	}
	s.notes = live
	out := make([]Notification, len(live))
	copy(out, live)
	return out
}

// Dismiss removes a notification before it expires.
func (s *Shell) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return
		}
	}
}

// SwitchLocale changes the UI language in place and remembers the choice.
func (s *Shell) SwitchLocale(ctx context.Context, l i18n.Locale) bool {
	if !s.bundle.SetLocale(l) {
		return false
	}
	if err := s.session.SetLocale(ctx, string(l)); err != nil {
		s.logger.Warn("failed to persist locale", "locale", l, "error", err)
	}
	return true
}

// Login is the app bar's login action.
func (s *Shell) Login(ctx context.Context) error {
	return s.Navigate(ctx, PathLogin)
}

// Logout ends the session and returns to the map.
func (s *Shell) Logout(ctx context.Context) error {
	if err := s.auth.SignOut(ctx); err != nil {
		s.logger.Error("logout failed", "error", err)
		s.Notify(pages.Error, s.bundle.T("authGeneric"))
		return err
	}
	s.Notify(pages.Info, s.bundle.T("loggedOut"))
	return s.Navigate(ctx, PathHome)
}

// Close detaches the shell from the bundle and leaves the current page.
func (s *Shell) Close() {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	if cur != nil {
		cur.Leave()
	}
}

// Render writes the app bar, drawer, notifications and the active page.
func (s *Shell) Render(ctx context.Context, w io.Writer) {
	t := s.bundle.T
	loggedIn := s.session.HasToken(ctx)

	var locales []string
	for _, l := range i18n.Locales {
		if l == s.bundle.Locale() {
			locales = append(locales, "*"+string(l))
		} else {
			locales = append(locales, string(l))
		}
	}
	action := t("login")
	if loggedIn {
		action = t("logout")
	}
	fmt.Fprintf(w, "%s | %s: %s | [%s]\n", t("appTitle"), t("language"), strings.Join(locales, " "), action)

	path := s.Path()
	var items []string
	for _, it := range Drawer {
		label := t(it.LabelKey)
		if it.Path == path {
			label = ">" + label
		}
		items = append(items, fmt.Sprintf("%s (%s)", label, it.Path))
	}
	fmt.Fprintln(w, strings.Join(items, " · "))

	for _, n := range s.Notifications() {
		fmt.Fprintf(w, "(%s) %s\n", n.Level, n.Message)
	}
	fmt.Fprintln(w)

	if cur := s.Current(); cur != nil {
		cur.Render(w)
	}
}

func (s *Shell) rerender() {
	s.mu.Lock()
	fn := s.onRender
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathHome
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
