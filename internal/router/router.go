package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dmarcu/contacts-api/internal/config"
	"github.com/dmarcu/contacts-api/internal/handler"
	"github.com/dmarcu/contacts-api/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg      config.Config
	Cache    config.CacheConfig
	Auth     *handler.AuthHandler
	Contacts *handler.ContactHandler
	Users    middleware.UserFinder
	Redis    *redis.Client // may be nil; the contact cache turns itself off
}

// RegisterRoutes wires the full HTTP surface onto the provided Echo
// instance: public account endpoints, the bearer-gated user endpoints, the
// owner-scoped contacts resource and the static avatar directory.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = newHTTPErrorHandler()

	e.GET("/healthz", handler.Health)

	// Account creation, login and the verification exchange need no session.
	users := e.Group("/users")
	users.POST("/signup", d.Auth.Signup)
	users.POST("/login", d.Auth.Login)
	users.GET("/verify/:token", d.Auth.Verify)
	users.POST("/verify", d.Auth.ResendVerify)

	// Session-scoped user endpoints sit behind the bearer gate.
	authed := e.Group("/users", middleware.JWTAuth(d.Cfg.JWTSecret, d.Users))
	authed.POST("/logout", d.Auth.Logout)
	authed.GET("/current", d.Auth.Current)
	authed.PATCH("", d.Auth.UpdateSubscription)
	authed.PATCH("/avatars", d.Auth.UpdateAvatar)

	// Contacts live behind the same gate; reads go through the per-user
	// response cache and successful writes bump its generation counter.
	api := e.Group("/api/contacts",
		middleware.JWTAuth(d.Cfg.JWTSecret, d.Users),
		middleware.BumpContactCache(d.Cache, d.Redis),
		middleware.ContactCache(d.Cache, d.Redis),
	)
	api.GET("", d.Contacts.List)
	api.POST("", d.Contacts.Create)
	api.GET("/:id", d.Contacts.GetByID)
	api.PUT("/:id", d.Contacts.Update)
	api.DELETE("/:id", d.Contacts.Delete)
	api.PATCH("/:id/favorite", d.Contacts.UpdateFavorite)

	// Processed avatars are served like any other public asset.
	e.Static("/avatars", d.Cfg.AvatarDir)
}

// newHTTPErrorHandler returns the top-level error responder. Handlers
// answer their own known failures; anything that escapes to here becomes a
// generic {"message": ...} body so internals never reach the client.
func newHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Internal Server Error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok && code != http.StatusInternalServerError {
				msg = s
			}
		}
		if code == http.StatusInternalServerError {
			log.Printf("unhandled error: %v", err)
		}
		_ = c.JSON(code, echo.Map{"message": msg})
	}
}
