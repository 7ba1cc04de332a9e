package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront/internal/errors"
	"storefront/internal/service"
	"storefront/internal/storage"
)

// MediaHandler serves image uploads.
type MediaHandler struct {
	media   service.MediaService
	objects storage.ObjectReader
}

// NewMediaHandler creates a new media handler. objects is nil when the store
// publishes its own URLs.
func NewMediaHandler(media service.MediaService, objects storage.ObjectReader) *MediaHandler {
	return &MediaHandler{media: media, objects: objects}
}

// ServesObjects reports whether ServeObject has a store to read from.
func (h *MediaHandler) ServesObjects() bool {
	return h.objects != nil
}

// ServeObject returns a stored image from the in-process store.
func (h *MediaHandler) ServeObject(c echo.Context) error {
	key := c.Param("*")
	if h.objects == nil || !(storage.IsProductImageKey(key) || strings.HasPrefix(key, storage.UserPrefix)) {
		return fail(errors.ErrInvalidObjectKey)
	}
	obj, found := h.objects.Get(key)
	if !found {
		return errors.NewHTTPError(http.StatusNotFound, "object not found", "NOT_FOUND").Echo()
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=300")
	return c.Blob(http.StatusOK, obj.ContentType, obj.Body)
}

// DeleteImageRequest names an image either by key or by slug and filename.
type DeleteImageRequest struct {
	Key      string `json:"key"`
	Slug     string `json:"slug"`
	Filename string `json:"filename"`
}

// UploadProductImage godoc
// @Summary Upload a product image
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param slug formData string true "Product slug"
// @Param file formData file true "JPEG, PNG or WebP image up to 5 MiB"
// @Success 201 {object} service.StoredObject
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /products/upload-image [post]
func (h *MediaHandler) UploadProductImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errors.BadRequest("file is required", "MISSING_FILE")
	}

	obj, err := h.media.UploadProductImage(c.Request().Context(), c.FormValue("slug"), file)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusCreated, echo.Map{"key": obj.Key, "url": obj.URL})
}

// DeleteProductImage godoc
// @Summary Delete a product image
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeleteImageRequest true "Image key, or slug and filename"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/delete-image [delete]
func (h *MediaHandler) DeleteProductImage(c echo.Context) error {
	var req DeleteImageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		if req.Slug == "" || req.Filename == "" {
			return errors.BadRequest("key or slug and filename are required", "VALIDATION_ERROR")
		}
		key = storage.ProductImageKey(req.Slug, req.Filename)
	}

	if err := h.media.DeleteProductImage(c.Request().Context(), key); err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"key": key})
}

// UploadAvatar godoc
// @Summary Upload the caller's avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "JPEG, PNG or WebP image up to 2 MiB"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/upload-avatar [post]
func (h *MediaHandler) UploadAvatar(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return uploadAvatar(c, h.media, p.ID)
}

func uploadAvatar(c echo.Context, media service.MediaService, userID uuid.UUID) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errors.BadRequest("file is required", "MISSING_FILE")
	}

	obj, user, err := media.UploadAvatar(c.Request().Context(), userID, file)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"key": obj.Key, "url": obj.URL, "user": user})
}
