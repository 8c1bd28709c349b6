package handler // handler contains the HTTP handlers behind the REST surface

import (
	"context"
	"database/sql"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/model"
	"github.com/dmarcu/contacts-api/internal/queue"
)

// UserStore is the slice of the user repository the handlers need.
// *repository.UserRepo satisfies it; tests substitute fakes.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	SetSessionToken(ctx context.Context, id uint64, token sql.NullString) error
	ConfirmByToken(ctx context.Context, token string) error
	UpdateSubscription(ctx context.Context, id uint64, subscription string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uint64, url string) error
}

// ContactStore is the slice of the contact repository the handlers need.
type ContactStore interface {
	List(ctx context.Context, ownerID uint64, favorite *bool, skip, limit int) ([]model.Contact, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error)
	Create(ctx context.Context, c *model.Contact) error
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, name, email, phone string) (*model.Contact, error)
	UpdateFavoriteByIDAndOwner(ctx context.Context, id, ownerID uint64, favorite bool) (*model.Contact, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error)
}

// EmailPublisher dispatches a rendered email to the broker.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, event queue.EmailRequestedEvent) error
}

// getUser pulls the authenticated user bound to the context by the JWT
// middleware.
func getUser(c echo.Context) (*model.User, error) {
	u, ok := c.Get("user").(*model.User)
	if !ok || u == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return u, nil
}

// getUserID extracts the authenticated user's id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get("user_id").(uint64); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// firstValidationError unwraps ozzo's field->error map so clients see the
// bare message ("missing required name field") the way the API always has,
// instead of the "field: message." form.
func firstValidationError(err error) string {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, fieldErr := range errs {
			return fieldErr.Error()
		}
	}
	return err.Error()
}
