package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sweeply-app/sweeply/internal/users"
)

const (
	purposeAccess        = "access"
	purposePasswordReset = "password_reset"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload for every token the service signs. Purpose keeps
// a reset token from being replayed as an access token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

func IssueAccessToken(u *users.User, secret string, ttl time.Duration) (string, error) {
	return sign(&Claims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Purpose:  purposeAccess,
	}, secret, ttl)
}

func IssuePasswordResetToken(userID int64, secret string, ttl time.Duration) (string, error) {
	return sign(&Claims{UserID: userID, Purpose: purposePasswordReset}, secret, ttl)
}

func sign(claims *Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAccessToken verifies signature, expiry and purpose, and returns the
// identity embedded in the token.
func ParseAccessToken(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, purposeAccess)
}

// ParsePasswordResetToken verifies a reset token issued by ForgotPassword.
func ParsePasswordResetToken(tokenStr, secret string) (*Claims, error) {
	return parse(tokenStr, secret, purposePasswordReset)
}

func parse(tokenStr, secret, purpose string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
