package handler

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/response"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/imaging"
	"tradepost/internal/infra/storage"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// imageFormField is the multipart field carrying item photos.
const imageFormField = "images"

// ItemHandlerParams holds dependencies for ItemHandler, injected by Fx.
type ItemHandlerParams struct {
	fx.In

	ItemUC usecase.ItemUsecase
	Blobs  *storage.BlobStore
	Logger *slog.Logger
}

// ItemHandler serves item submission, marketplace reads and stored images.
type ItemHandler struct {
	itemUC usecase.ItemUsecase
	blobs  *storage.BlobStore
	logger *slog.Logger
}

// NewItemHandler is the constructor for ItemHandler.
func NewItemHandler(params ItemHandlerParams) *ItemHandler {
	return &ItemHandler{
		itemUC: params.ItemUC,
		blobs:  params.Blobs,
		logger: params.Logger,
	}
}

// Upload handles the multipart item submission.
func (h *ItemHandler) Upload(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Expected a multipart form")
	}

	input := &usecase.CreateItemInput{
		UploaderID:  userID,
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Condition:   c.FormValue("condition"),
		Category:    c.FormValue("category"),
	}
	for _, fh := range form.File[imageFormField] {
		upload, err := readUpload(fh)
		if err != nil {
			return errors.Wrap(err, "failed to read uploaded image")
		}
		input.Images = append(input.Images, upload)
	}

	item, err := h.itemUC.CreateItem(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newItemView(item), "Item submitted for review")
}

// readUpload buffers one part. Reading stops one byte past the absolute cap so the validator sees the overflow.
func readUpload(fh *multipart.FileHeader) (*usecase.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, imaging.MaxAbsoluteBytes+1))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &usecase.ImageUpload{
		Filename:       fh.Filename,
		ContentType:    fh.Header.Get(echo.HeaderContentType),
		DeclaredLength: fh.Size,
		Data:           data,
	}, nil
}

// ListItems returns the visible marketplace.
func (h *ItemHandler) ListItems(c echo.Context) error {
	limit, offset := pageParams(c)

	page, err := h.itemUC.ListListed(c.Request().Context(), repository.ItemFilter{
		Category: entity.Category(c.QueryParam("category")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"items": newItemViews(page.Items),
		"total": page.Total,
	}, "")
}

// GetItem returns one item the caller may see.
func (h *ItemHandler) GetItem(c echo.Context) error {
	itemID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	item, err := h.itemUC.GetItem(c.Request().Context(), middleware.GetViewer(c), itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemView(item), "")
}

// ListMine returns the caller's uploads in every state.
func (h *ItemHandler) ListMine(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	items, err := h.itemUC.ListMine(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemViews(items), "")
}

// Withdraw takes the caller's listed item off the marketplace.
func (h *ItemHandler) Withdraw(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	itemID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	item, err := h.itemUC.Withdraw(c.Request().Context(), userID, itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemView(item), "Item withdrawn")
}

// ServeMedia streams a stored image.
func (h *ItemHandler) ServeMedia(c echo.Context) error {
	key := path.Clean("/" + c.Param("*"))
	if key == "/" || strings.Contains(key, "..") {
		return response.NotFound(c, "NOT_FOUND", "Image not found")
	}

	reader, contentType, err := h.blobs.Open(c.Request().Context(), strings.TrimPrefix(key, "/"))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return response.NotFound(c, "NOT_FOUND", "Image not found")
		}

		return errors.WithStack(err)
	}
	defer reader.Close()

	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	return c.Stream(http.StatusOK, contentType, reader)
}
