package identity

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// userFromToken reads the user claims of an ID token without verifying its
// signature. The backend verifies tokens; the client only displays them.
func userFromToken(token string) (*User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}

	u := &User{}
	if id, ok := claims["user_id"].(string); ok {
		u.ID = id
	} else if sub, ok := claims["sub"].(string); ok {
		u.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		u.Email = email
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		u.EmailVerified = verified
	}
	if u.ID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return u, nil
}
