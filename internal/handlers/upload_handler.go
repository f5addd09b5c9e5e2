package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"querystack/internal/apperror"
	"querystack/internal/auth"
	"querystack/internal/storage"
)

// UploadHandler handles image uploads.
type UploadHandler struct {
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploader storage.Uploader, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, logger: logger}
}

// RegisterRoutes registers the upload route.
func (h *UploadHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/upload", h.HandleUpload)
}

// HandleUpload stores the multipart "file" field for a signed-in caller and
// returns its public URL.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	session, found := auth.FromContext(c.UserContext())
	if !found {
		return apperror.Unauthorized()
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperror.ValidationFailed("file", "No file provided")
	}
	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.UserContext(), f)
	if err != nil {
		return err
	}
	h.logger.Info("image uploaded", zap.String("user_id", session.UserID), zap.String("url", url))
	return created(c, fiber.Map{"url": url})
}
