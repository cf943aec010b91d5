package pages

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"metrodiver/internal/identity"
)

// Auth is the identity client as the pages use it.
type Auth interface {
	Register(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	ResendVerification(ctx context.Context) error
	PendingVerification() bool
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*identity.User, error)
}

// Login is the combined login and registration form.
type Login struct {
	Auth   Auth
	Nav    Navigator
	T      Translator
	Notify Notifier
	Logger *slog.Logger

	email string
	last  identity.Reason
}

func (p *Login) Enter(context.Context) { p.last = "" }

func (p *Login) Leave() {}

// SignIn logs in and moves to the user center on success.
func (p *Login) SignIn(ctx context.Context, email, password string) bool {
	p.email = email
	sess, err := p.Auth.SignIn(ctx, email, password)
	if err != nil {
		p.fail("sign-in", err)
		return false
	}
	p.last = ""
	p.Notify.Notify(Success, p.T.T("welcome", map[string]string{"name": sess.Email}))
	if p.Nav != nil {
		if err := p.Nav.Navigate(ctx, "/user"); err != nil {
			p.Logger.Warn("login: navigate after sign-in", "error", err)
		}
	}
	return true
}

// Register creates the account; the user must verify the e-mail and then
// log in.
func (p *Login) Register(ctx context.Context, email, password string) bool {
	p.email = email
	if err := p.Auth.Register(ctx, email, password); err != nil {
		p.fail("register", err)
		return false
	}
	p.last = ""
	p.Notify.Notify(Success, p.T.T("registered", map[string]string{"email": email}))
	return true
}

// Resend sends the verification e-mail of the pending account again.
func (p *Login) Resend(ctx context.Context) bool {
	if err := p.Auth.ResendVerification(ctx); err != nil {
		p.fail("resend verification", err)
		return false
	}
	p.Notify.Notify(Success, p.T.T("verifySent"))
	return true
}

// LastReason is the reason of the most recent failure, "" after success.
func (p *Login) LastReason() identity.Reason { return p.last }

func (p *Login) fail(op string, err error) {
	p.last = identity.ReasonOf(err)
	p.Logger.Warn("login: "+op+" failed", "email", p.email, "reason", p.last, "error", err)
	p.Notify.Notify(Error, p.T.T(string(p.last)))
}

func (p *Login) Render(w io.Writer) {
	fmt.Fprintf(w, "== %s / %s ==\n", p.T.T("login"), p.T.T("register"))
	fmt.Fprintf(w, "%s: %s\n", p.T.T("email"), p.email)
	fmt.Fprintf(w, "%s: ******\n", p.T.T("password"))
	if p.last != "" {
		fmt.Fprintf(w, "! %s\n", p.T.T(string(p.last)))
	}
	if p.Auth.PendingVerification() {
		fmt.Fprintf(w, "[%s]\n", p.T.T("resendVerify"))
	}
}
