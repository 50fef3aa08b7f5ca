package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the payload of the session token issued at login.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// Identity extracts the acting user from a session token without verifying
// the signature. Verification belongs to the server; the companion only needs
// to know which user it is acting as, so that events naming that user can
// update "my balance".
func Identity(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("session token carries no user_id claim")
	}
	return claims, nil
}
