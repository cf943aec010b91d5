// Package identity wraps the external identity provider (account
// registration, password sign-in, e-mail verification) and the blob store
// holding user avatars.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

// User is the profile of the signed-in account.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
}

// Session is an authenticated provider session.
type Session struct {
	Token  string
	UserID string
	Email  string
}

// SessionStore persists the session on the client.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	SetSession(ctx context.Context, token, username string) error
	Clear(ctx context.Context) error
}

// newAccount holds the sign-up rules; the provider rejects shorter
// passwords with WEAK_PASSWORD.
type newAccount struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// credentials only has to be well formed. Whether the password is right
// is the provider's call.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Client talks to an Identity Toolkit style REST API.
type Client struct {
	baseURL  string
	apiKey   string
	client   *req.Client
	store    SessionStore
	validate *validator.Validate
	logger   *slog.Logger

	mu sync.Mutex
	// pending is the session of a registration or sign-in whose e-mail is
	// not verified yet. It lives in memory only.
	pending *Session
}

// NewClient creates an identity client. baseURL is the provider root, e.g.
// https://identitytoolkit.googleapis.com/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration, store SessionStore, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   req.C().SetBaseURL(baseURL).SetTimeout(timeout).SetUserAgent("MetroDiver/1.0"),
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

type authResponse struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
	LocalID string `json:"localId"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Register creates an account and sends the verification e-mail. It never
// establishes a persisted session; the new account stays pending until
// its e-mail is verified and the user signs in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	if err := c.check(newAccount{Email: email, Password: password}, ReasonWeakPassword); err != nil {
		return err
	}

	var resp authResponse
	if err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return err
	}

	if err := c.sendVerification(ctx, resp.IDToken); err != nil {
		return err
	}

	c.setPending(&Session{Token: resp.IDToken, UserID: resp.LocalID, Email: resp.Email})
	c.logger.Info("account registered", "user", resp.LocalID)
	return nil
}

// SignIn authenticates with e-mail and password and persists the session.
// An account whose e-mail is not verified is rejected with
// ReasonEmailUnverified and nothing is persisted; ResendVerification can
// then be used.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := c.check(credentials{Email: email, Password: password}, ReasonWrongPassword); err != nil {
		return nil, err
	}

	var resp authResponse
	if err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return nil, err
	}

	user, err := c.lookup(ctx, resp.IDToken)
	if err != nil {
		return nil, err
	}

	sess := &Session{Token: resp.IDToken, UserID: resp.LocalID, Email: resp.Email}
	if !user.EmailVerified {
		c.setPending(sess)
		c.logger.Info("sign-in rejected: email unverified", "user", resp.LocalID)
		return nil, &AuthError{Reason: ReasonEmailUnverified}
	}

	c.setPending(nil)
	if err := c.store.SetSession(ctx, sess.Token, sess.Email); err != nil {
		return nil, &AuthError{Reason: ReasonGeneric, Err: fmt.Errorf("persist session: %w", err)}
	}
	c.logger.Info("user signed in", "user", sess.UserID)
	return sess, nil
}

// ResendVerification sends the verification e-mail again for the pending
// unverified session.
func (c *Client) ResendVerification(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending == nil {
		return ErrNoPendingVerification
	}
	return c.sendVerification(ctx, pending.Token)
}

// PendingVerification reports whether a resend is possible.
func (c *Client) PendingVerification() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// SignOut clears the persisted session and any pending one.
func (c *Client) SignOut(ctx context.Context) error {
	c.setPending(nil)
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.logger.Info("user signed out")
	return nil
}

// CurrentUser returns the signed-in user, or nil when there is no session.
// The stored token's claims are used when it is a JWT; otherwise the
// provider is asked.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	tok, err := c.store.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if tok == "" {
		return nil, nil
	}
	if u, err := userFromToken(tok); err == nil {
		return u, nil
	}
	return c.lookup(ctx, tok)
}

// check validates v. A bad Email field reports ReasonInvalidEmail, a bad
// password reports passwordReason.
func (c *Client) check(v any, passwordReason Reason) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Email" {
		return &AuthError{Reason: ReasonInvalidEmail, Err: err}
	}
	return &AuthError{Reason: passwordReason, Err: err}
}

func (c *Client) sendVerification(ctx context.Context, idToken string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	}, nil)
}

func (c *Client) lookup(ctx context.Context, idToken string) (*User, error) {
	var resp lookupResponse
	if err := c.post(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &AuthError{Reason: ReasonUserNotFound}
	}
	u := resp.Users[0]
	return &User{ID: u.LocalID, Email: u.Email, EmailVerified: u.EmailVerified}, nil
}

func (c *Client) setPending(s *Session) {
	c.mu.Lock()
	c.pending = s
	c.mu.Unlock()
}

// post calls a provider method and decodes the result into out (if non-nil).
// Every failure comes back as an *AuthError.
func (c *Client) post(ctx context.Context, method string, body, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetQueryParam("key", c.apiKey).
		SetBodyJsonMarshal(body).
		Post("/" + method)
	if err != nil {
		c.logger.Warn("identity provider unreachable", "method", method, "error", err)
		return &AuthError{Reason: ReasonNetwork, Err: err}
	}

	if !resp.IsSuccessState() {
		var perr providerError
		if jerr := json.Unmarshal(resp.Bytes(), &perr); jerr != nil || perr.Error.Message == "" {
			return &AuthError{Reason: ReasonGeneric, Err: fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)}
		}
		code := perr.Error.Message
		return &AuthError{Reason: reasonForCode(code), Code: code}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Bytes(), out); err != nil {
		return &AuthError{Reason: ReasonGeneric, Err: fmt.Errorf("decode %s: %w", method, err)}
	}
	return nil
}
