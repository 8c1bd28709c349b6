package handler

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

// maxAvatarBytes caps uploads at 2 MB, same limit the upload form enforces.
const maxAvatarBytes = 2 << 20

// avatarSize is the square edge every stored avatar is resized to.
const avatarSize = 250

// Current returns the authenticated user's public representation. The
// response depends only on the stored record, so repeated calls with the
// same token are identical.
func (h *AuthHandler) Current(c echo.Context) error {
	u, err := getUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	return c.JSON(http.StatusOK, userResp{Email: u.Email, Subscription: u.Subscription})
}

type subscriptionReq struct {
	Subscription string `json:"subscription"`
}

func (r subscriptionReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subscription, validation.Required,
			validation.In("starter", "pro", "business")),
	)
}

// UpdateSubscription switches the owning user's tier.
func (h *AuthHandler) UpdateSubscription(c echo.Context) error {
	u, err := getUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}
	var req subscriptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": firstValidationError(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Users.UpdateSubscription(ctx, u.ID, req.Subscription)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, userResp{Email: updated.Email, Subscription: updated.Subscription})
}

// UpdateAvatar accepts a multipart image under the "avatar" field, resizes
// it to a 250x250 square and hands it to the avatar store. The resulting
// public URL replaces whatever the user record held before.
func (h *AuthHandler) UpdateAvatar(c echo.Context) error {
	u, err := getUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authorized"})
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing file"})
	}
	if fh.Size > maxAvatarBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "file too large"})
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Unsupported file format. Please upload an image."})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not read file"})
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Unsupported file format. Please upload an image."})
	}
	img = imaging.Resize(img, avatarSize, avatarSize, imaging.Lanczos)

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.PNG
		ext = ".png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not process image"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filename := fmt.Sprintf("%d_%d%s", u.ID, time.Now().UnixNano(), ext)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.Avatars.Save(ctx, filename, buf.Bytes(), contentType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not store avatar"})
	}
	if err := h.Users.UpdateAvatar(ctx, u.ID, url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"avatarURL": url})
}
