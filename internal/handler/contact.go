package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/dmarcu/contacts-api/internal/model"
	"github.com/dmarcu/contacts-api/internal/repository"
)

// ContactHandler bundles the contact store for the /api/contacts endpoints.
// Every operation is scoped to the authenticated owner; the owner id comes
// from the request context, never from client input.
type ContactHandler struct {
	Contacts ContactStore
}

func NewContactHandler(contacts ContactStore) *ContactHandler {
	return &ContactHandler{Contacts: contacts}
}

type contactReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r contactReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("missing required name field")),
		validation.Field(&r.Email, validation.Required.Error("missing required email field"), is.Email),
		validation.Field(&r.Phone, validation.Required.Error("missing required phone field")),
	)
}

// parseContactID converts the :id path parameter. A non-numeric id cannot
// match any contact, so it reports the same not-found the lookup would.
func parseContactID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// List returns a page of the owner's contacts. Pagination is offset-based:
// skip = (page-1)*limit with page defaulting to 1 and limit to 10. An
// optional favorite=true|false query narrows the page to that flag.
func (h *ContactHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var favorite *bool
	if v := c.QueryParam("favorite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid favorite filter"})
		}
		favorite = &b
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, err := h.Contacts.List(ctx, uid, favorite, (page-1)*limit, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return c.JSON(http.StatusOK, contacts)
}

// GetByID fetches a single owned contact. An id belonging to another user
// is indistinguishable from a missing one.
func (h *ContactHandler) GetByID(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	id, ok := parseContactID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, contact)
}

// Create inserts a contact under the authenticated owner.
func (h *ContactHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": firstValidationError(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact := &model.Contact{
		OwnerID: uid, // owner binding happens here, client input is ignored
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
	}
	if err := h.Contacts.Create(ctx, contact); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, contact)
}

// Update replaces the mutable fields of an owned contact.
func (h *ContactHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	id, ok := parseContactID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": firstValidationError(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.UpdateByIDAndOwner(ctx, id, uid, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, contact)
}

type favoriteReq struct {
	// Pointer so an absent field is distinguishable from an explicit false.
	Favorite *bool `json:"favorite"`
}

// UpdateFavorite mutates only the favorite flag of an owned contact.
func (h *ContactHandler) UpdateFavorite(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	id, ok := parseContactID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}
	var req favoriteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.Favorite == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing field favorite"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.UpdateFavoriteByIDAndOwner(ctx, id, uid, *req.Favorite)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete removes an owned contact and returns its last state.
func (h *ContactHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	id, ok := parseContactID(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.DeleteByIDAndOwner(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.JSON(http.StatusOK, contact)
}
