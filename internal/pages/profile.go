package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"metrodiver/internal/identity"
)

// AvatarStore uploads and looks up profile pictures.
type AvatarStore interface {
	Upload(ctx context.Context, userID, contentType string, data []byte) (string, error)
	URL(ctx context.Context, userID string) (string, error)
}

// Session is the local session state the profile reads.
type Session interface {
	HasToken(ctx context.Context) bool
	Username(ctx context.Context) (string, error)
}

// Profile is the user center. It checks the session itself; reaching it
// without one shows the not-logged-in message.
type Profile struct {
	Auth    Auth
	Avatars AvatarStore
	Session Session
	T       Translator
	Notify  Notifier
	Logger  *slog.Logger

	user      *identity.User
	username  string
	avatarURL string
}

func (p *Profile) Enter(ctx context.Context) {
	p.user, p.username, p.avatarURL = nil, "", ""
	if !p.Session.HasToken(ctx) {
		return
	}
	u, err := p.Auth.CurrentUser(ctx)
	if err != nil || u == nil {
		if err != nil {
			p.Logger.Warn("profile: current user", "error", err)
		}
		return
	}
	p.user = u
	if name, err := p.Session.Username(ctx); err == nil && name != "" {
		p.username = name
	} else {
		p.username = u.Email
	}

	url, err := p.Avatars.URL(ctx, u.ID)
	switch {
	case err == nil:
		p.avatarURL = url
	case errors.Is(err, identity.ErrNoAvatar):
	default:
		p.Logger.Warn("profile: avatar lookup failed", "user", u.ID, "error", err)
	}
}

func (p *Profile) Leave() {}

// SignedIn reports whether the page found a session on Enter.
func (p *Profile) SignedIn() bool { return p.user != nil }

// AvatarURL is the current avatar URL, "" if none.
func (p *Profile) AvatarURL() string { return p.avatarURL }

// UploadAvatar replaces the user's avatar.
func (p *Profile) UploadAvatar(ctx context.Context, contentType string, data []byte) bool {
	if p.user == nil {
		p.Notify.Notify(Warning, p.T.T("notLoggedIn"))
		return false
	}
	url, err := p.Avatars.Upload(ctx, p.user.ID, contentType, data)
	if err != nil {
		p.Logger.Error("profile: avatar upload failed", "user", p.user.ID, "error", err)
		p.Notify.Notify(Error, p.T.T(string(identity.ReasonOf(err))))
		return false
	}
	p.avatarURL = url
	p.Notify.Notify(Success, p.T.T("avatarUpdated"))
	return true
}

func (p *Profile) Render(w io.Writer) {
	fmt.Fprintf(w, "== %s ==\n", p.T.T("userCenter"))
	if p.user == nil {
		fmt.Fprintln(w, p.T.T("notLoggedIn"))
		return
	}
	fmt.Fprintln(w, p.T.T("welcome", map[string]string{"name": p.username}))
	fmt.Fprintf(w, "%s: %s\n", p.T.T("email"), p.user.Email)
	if p.avatarURL != "" {
		fmt.Fprintf(w, "%s: %s\n", p.T.T("avatar"), p.avatarURL)
	} else {
		fmt.Fprintf(w, "%s: %s\n", p.T.T("avatar"), p.T.T("noAvatar"))
	}
	fmt.Fprintf(w, "[%s]\n", p.T.T("logout"))
}
