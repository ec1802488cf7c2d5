package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/storage"
)

// ImageStore is the object storage behind the image endpoints.
type ImageStore interface {
	UploadImage(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*storage.Image, error)
	ListImages(ctx context.Context) ([]storage.Image, error)
	GeneratePresignedURL(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type ImageController struct {
	store ImageStore
}

func NewImageController(store ImageStore) *ImageController {
	return &ImageController{store: store}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// Upload stores a multipart "image" field
// POST /api/v1/images/upload
func (ctrl *ImageController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	header, err := c.FormFile("image")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "multipart field \"image\" is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err)
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	image, err := ctrl.store.UploadImage(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondUploadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, image)
}

// List returns every stored image
// GET /api/v1/images
func (ctrl *ImageController) List(c *gin.Context) {
	images, err := ctrl.store.ListImages(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list images", err)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.InternalExternalAPI, "Image storage is unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"images": images,
		"count":  len(images),
	})
}

// GeneratePresignedURL generates a presigned URL for uploading files to S3
// POST /api/v1/upload/presigned-url
func (ctrl *ImageController) GeneratePresignedURL(c *gin.Context) {
	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "filename and content_type are required")
		return
	}

	response, err := ctrl.store.GeneratePresignedURL(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		respondUploadError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrContentTypeInvalid):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
	case errors.Is(err, storage.ErrFileTooLarge):
		apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, err.Error())
	default:
		middleware.GetLoggerFromContext(c).Error("Image upload failed", err)
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to store the image")
	}
}
