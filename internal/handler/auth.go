package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/config"
	"github.com/dmarcu/contacts-api/internal/model"
	"github.com/dmarcu/contacts-api/internal/queue"
	"github.com/dmarcu/contacts-api/internal/repository"
	"github.com/dmarcu/contacts-api/internal/storage"
	"github.com/dmarcu/contacts-api/internal/utils"
)

// AuthHandler bundles dependencies for the /users endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Publisher EmailPublisher
	Avatars   storage.AvatarStore
}

func NewAuthHandler(cfg config.Config, users UserStore, pub EmailPublisher, avatars storage.AvatarStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Publisher: pub, Avatars: avatars}
}

// ----- DTOs -----

type signupReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Subscription string `json:"subscription"`
}

func (r signupReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.Subscription, validation.In(
			model.SubscriptionStarter, model.SubscriptionPro, model.SubscriptionBusiness)),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// userResp is the only shape a user record takes on the wire. The password
// hash and token slots stay inside the process.
type userResp struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL,omitempty"`
}

// Signup creates a new unverified account and queues the verification
// email. A failed dispatch fails the whole request: the row exists but the
// client is told to retry rather than being left with an unreachable
// account and no link.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Subscription == "" {
		req.Subscription = model.SubscriptionStarter
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": firstValidationError(err)})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create user"})
	}

	u := &model.User{
		Email:             req.Email,
		PasswordHash:      hash,
		Subscription:      req.Subscription,
		AvatarURL:         utils.GravatarURL(req.Email),
		VerificationToken: sql.NullString{String: utils.NewVerificationToken(), Valid: true},
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Email in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create user"})
	}

	if err := h.sendVerification(ctx, u.Email, u.VerificationToken.String); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not send verification email"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": userResp{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}})
}

// Login exchanges credentials for a session token and stores it in the
// user's single session slot, invalidating any earlier token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": firstValidationError(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Email or password is wrong"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}

	// Verification status is checked before the password on purpose: an
	// unverified account gets its own message regardless of credential
	// correctness.
	if !u.Verified {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Email not verified"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Email or password is wrong"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}
	if err := h.Users.SetSessionToken(ctx, u.ID, sql.NullString{String: access.Token, Valid: true}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "save token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": access.Token,
		"user":  userResp{Email: u.Email, Subscription: u.Subscription},
	})
}

// Logout clears the session slot. The token in the Authorization header
// stops matching immediately, on every device that holds it.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, err := getUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetSessionToken(ctx, u.ID, sql.NullString{}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Verify handles GET /users/verify/:token, the one-time exchange that
// flips an account to verified. A spent or unknown token is a 404; the
// repository clears the token in the same statement that sets the flag, so
// replaying a link can never succeed twice.
func (h *AuthHandler) Verify(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ConfirmByToken(ctx, token); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Verification successful"})
}

type resendReq struct {
	Email string `json:"email"`
}

// ResendVerify re-queues the verification email for an unverified account.
// The existing token is reused; rotating it would break links already in
// the user's inbox.
func (h *AuthHandler) ResendVerify(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing required field email"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if u.Verified {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Verification has already been passed"})
	}
	if !u.VerificationToken.Valid {
		// Unverified without a token should be impossible; treat it like a
		// server fault rather than minting a fresh token here.
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification token missing"})
	}

	if err := h.sendVerification(ctx, u.Email, u.VerificationToken.String); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not send verification email"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Verification email sent"})
}

func (h *AuthHandler) sendVerification(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/users/verify/%s", h.Cfg.BaseURL, token)
	return h.Publisher.PublishEmail(ctx, queue.EmailRequestedEvent{
		To:       email,
		Subject:  "Verify your email",
		HTML:     fmt.Sprintf(`<p>Welcome! Please <a href="%s">verify your email</a> to activate your account.</p>`, link),
		QueuedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
