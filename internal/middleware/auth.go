package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/model"
	"github.com/dmarcu/contacts-api/internal/utils"
)

// UserFinder loads a user by id. *repository.UserRepo satisfies it; tests
// substitute a fake.
type UserFinder interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// JWTAuth returns an Echo middleware that resolves a Bearer token into an
// authenticated user. The header must be exactly the literal scheme
// "Bearer", one space, and the token. Beyond cryptographic verification
// the token must match the user's stored session slot byte for byte, so a
// later login (or a logout) invalidates every previously issued token even
// while its signature is still within its validity window.
//
// On success the user is bound to the request context under "user" and its
// id under "user_id". The middleware only reads; it never mutates state.
func JWTAuth(secret string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || scheme != "Bearer" || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
			}

			uid, err := utils.ParseSubject(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, uid)
			if err != nil {
				// A decoded subject that no longer resolves to a user is the
				// same failure as a forged token.
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
			}
			if !u.Token.Valid || u.Token.String != raw {
				// Stale token: the single session slot has moved on.
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}
