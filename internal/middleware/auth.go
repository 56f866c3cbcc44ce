package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/auth"
	"github.com/sweeply-app/sweeply/internal/users"
)

// RequireAuth verifies the bearer token and stores the actor under "user" in
// the request context. The identity comes from the token claims; handlers
// that need fresh rows load them from the store.
func RequireAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return apperrors.Unauthorized("missing or malformed authorization header")
			}

			claims, err := auth.ParseAccessToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
			if err != nil {
				return apperrors.Unauthorized("invalid or expired token")
			}

			c.Set("user", &users.User{
				ID:       claims.UserID,
				Username: claims.Username,
				Email:    claims.Email,
			})
			return next(c)
		}
	}
}

// Actor returns the authenticated user placed in context by RequireAuth.
func Actor(c echo.Context) *users.User {
	u, _ := c.Get("user").(*users.User)
	return u
}
