package nakama

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
)

// Session is an authenticated server session. The token is a JWT signed by the
// server; the client only reads its claims.
type Session struct {
	Token        string
	RefreshToken string
	Created      bool
	UserID       string
	Username     string
	ExpiresAt    time.Time
}

type sessionClaims struct {
	UserID   string            `json:"uid"`
	Username string            `json:"usn"`
	Vars     map[string]string `json:"vrs,omitempty"`
	jwt.RegisteredClaims
}

// ParseSession reads the claims of a session token without verifying its signature.
func ParseSession(token, refreshToken string, created bool) (*Session, error) {
	claims := &sessionClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse session token: %w", apperror.ErrAuthentication, err)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user id in session", apperror.ErrAuthentication)
	}

	session := &Session{
		Token:        token,
		RefreshToken: refreshToken,
		Created:      created,
		UserID:       claims.UserID,
		Username:     claims.Username,
	}

	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}

func (that *Session) IsExpired(now time.Time) bool {
	if that.ExpiresAt.IsZero() {
		return false
	}

	return !now.Before(that.ExpiresAt)
}
