package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"aihouse/internal/model"
	"aihouse/internal/repository"
	"aihouse/internal/service"
)

// UploadHandler handles property image upload and serving
type UploadHandler struct {
	repo  *repository.PostgresRepository
	store *service.ImageStore
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(repo *repository.PostgresRepository, store *service.ImageStore) *UploadHandler {
	return &UploadHandler{repo: repo, store: store}
}

// Upload handles POST /api/upload/properties/:id/images
func (h *UploadHandler) Upload(c *gin.Context) {
	propertyID, ok := parseID(c)
	if !ok {
		return
	}

	// property must exist before we accept files for it
	if _, err := h.repo.GetPropertyByID(propertyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load property: " + err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if fileHeader.Size > h.store.MaxBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}
	if !h.store.Allowed(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file: " + err.Error()})
		return
	}
	defer file.Close()

	filename, err := h.store.Save(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image: " + err.Error()})
		return
	}

	thumb := filename
	img, err := h.repo.InsertImage(&model.PropertyImage{
		PropertyID:       propertyID,
		FilePath:         filename,
		ThumbnailPath:    &thumb,
		OriginalFilename: fileHeader.Filename,
		FileSize:         fileHeader.Size,
	})
	if err != nil {
		h.store.Remove(filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record image: " + err.Error()})
		return
	}

	img.ImageURL = "/api/upload/images/" + img.FilePath
	if img.ThumbnailPath != nil {
		img.ThumbnailURL = "/api/upload/thumbnails/" + img.FilePath
	}
	c.JSON(http.StatusCreated, img)
}

// ServeImage handles GET /api/upload/images/:filename
func (h *UploadHandler) ServeImage(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	c.File(h.store.Path(filename))
}

// ServeThumbnail handles GET /api/upload/thumbnails/:filename
func (h *UploadHandler) ServeThumbnail(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	c.File(h.store.ThumbnailPath(filename))
}

// Delete handles DELETE /api/upload/images/:id
func (h *UploadHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	img, err := h.repo.GetImageByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get image: " + err.Error()})
		return
	}

	if err := h.repo.DeleteImage(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image: " + err.Error()})
		return
	}

	h.store.Remove(img.FilePath)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// SetPrimary handles PUT /api/upload/properties/:id/images/:imageID/primary
func (h *UploadHandler) SetPrimary(c *gin.Context) {
	propertyID, ok := parseID(c)
	if !ok {
		return
	}
	imageID, err := strconv.ParseInt(c.Param("imageID"), 10, 64)
	if err != nil || imageID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return
	}

	if err := h.repo.SetPrimaryImage(propertyID, imageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set primary image: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "primary image updated"})
}
