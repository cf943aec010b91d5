package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Reason classifies an authentication failure. The values double as
// message catalog keys.
type Reason string

const (
	ReasonEmailInUse      Reason = "authEmailInUse"
	ReasonInvalidEmail    Reason = "authInvalidEmail"
	ReasonWeakPassword    Reason = "authWeakPassword"
	ReasonUserNotFound    Reason = "authUserNotFound"
	ReasonWrongPassword   Reason = "authWrongPassword"
	ReasonNetwork         Reason = "authNetwork"
	ReasonEmailUnverified Reason = "authEmailUnverified"
	ReasonGeneric         Reason = "authGeneric"
)

// AuthError is returned by every identity operation that fails.
// Code carries the provider's raw error code when there is one.
type AuthError struct {
	Reason Reason
	Code   string
	Err    error
}

func (e *AuthError) Error() string {
	switch {
	case e.Code != "" && e.Err != nil:
		return fmt.Sprintf("auth %s (%s): %v", e.Reason, e.Code, e.Err)
	case e.Code != "":
		return fmt.Sprintf("auth %s (%s)", e.Reason, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("auth %s: %v", e.Reason, e.Err)
	}
	return "auth " + string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ReasonOf extracts the Reason of an AuthError anywhere in err's chain.
// Other errors report ReasonGeneric.
func ReasonOf(err error) Reason {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ReasonGeneric
}

var (
	// ErrNoSession is returned when an operation needs a signed-in user.
	ErrNoSession = errors.New("no session")
	// ErrNoPendingVerification is returned by ResendVerification when no
	// unverified sign-in or registration is pending.
	ErrNoPendingVerification = errors.New("no unverified session pending")
	// ErrNoAvatar is returned when the user has not uploaded an avatar.
	ErrNoAvatar = errors.New("no avatar")
)

// reasonForCode maps provider error codes onto reasons. Codes may carry a
// human suffix ("WEAK_PASSWORD : Password should be ..."), only the leading
// token is significant.
func reasonForCode(code string) Reason {
	code = strings.TrimSpace(strings.SplitN(code, ":", 2)[0])
	switch code {
	case "EMAIL_EXISTS":
		return ReasonEmailInUse
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ReasonInvalidEmail
	case "WEAK_PASSWORD", "MISSING_PASSWORD":
		return ReasonWeakPassword
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND", "USER_DISABLED":
		return ReasonUserNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return ReasonWrongPassword
	}
	return ReasonGeneric
}
