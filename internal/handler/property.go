package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"aihouse/internal/model"
	"aihouse/internal/repository"
	"aihouse/internal/service"
)

// PropertyHandler handles listing CRUD, free-text parsing and embedding
// updates.
type PropertyHandler struct {
	repo   *repository.PostgresRepository
	parser *service.PropertyParser
	store  *service.ImageStore
	ai     service.AIClient
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(repo *repository.PostgresRepository, parser *service.PropertyParser, store *service.ImageStore, ai service.AIClient) *PropertyHandler {
	return &PropertyHandler{repo: repo, parser: parser, store: store, ai: ai}
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var req model.PropertyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !req.PropertyType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_type must be rent or sale"})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	prop, err := h.repo.CreateProperty(&req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, prop)
}

// Get handles GET /api/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	prop, err := h.repo.GetPropertyByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	attachImageURLs(prop.Images)
	c.JSON(http.StatusOK, prop)
}

// List handles GET /api/properties
func (h *PropertyHandler) List(c *gin.Context) {
	var params model.PropertySearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	if params.PropertyType != nil && !params.PropertyType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_type must be rent or sale"})
		return
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Size < 1 || params.Size > 100 {
		params.Size = 20
	}

	items, total, err := h.repo.SearchProperties(&params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list properties: " + err.Error()})
		return
	}

	totalPages := (total + params.Size - 1) / params.Size
	c.JSON(http.StatusOK, model.PropertyListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		Size:       params.Size,
		TotalPages: totalPages,
	})
}

// Update handles PUT /api/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.PropertyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.PropertyType != nil && !req.PropertyType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_type must be rent or sale"})
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	prop, err := h.repo.UpdateProperty(id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, prop)
}

// Delete handles DELETE /api/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// collect image files before the cascade removes the records
	images, err := h.repo.ListImagesByProperty(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property: " + err.Error()})
		return
	}

	if err := h.repo.DeleteProperty(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property: " + err.Error()})
		return
	}

	for _, img := range images {
		h.store.Remove(img.FilePath)
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ParseText handles POST /api/properties/parse-text
func (h *PropertyHandler) ParseText(c *gin.Context) {
	var req model.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	parsed := h.parser.Parse(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, parsed)
}

// GenerateEmbedding handles POST /api/properties/:id/embedding - computes
// and stores an embedding from the listing's own text.
func (h *PropertyHandler) GenerateEmbedding(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.ai == nil || !h.ai.IsEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI features are disabled"})
		return
	}

	prop, err := h.repo.GetPropertyByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	embeddings, err := h.ai.CreateEmbeddings(c.Request.Context(), []string{embeddingText(prop)})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create embedding: " + err.Error()})
		return
	}
	if len(embeddings) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Embedding service returned no result"})
		return
	}

	if err := h.repo.UpdateEmbedding(id, embeddings[0]); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store embedding: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "embedding updated", "dimensions": len(embeddings[0])})
}

// embeddingText concatenates the fields worth embedding for a listing.
func embeddingText(p *model.Property) string {
	parts := []string{p.CommunityName, p.StreetAddress, string(p.PropertyType)}
	for _, s := range []*string{p.RoomCount, p.DecorationStatus, p.FurnitureAppliances, p.Description} {
		if s != nil {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, " ")
}

// BatchEmbeddings handles POST /api/properties/embeddings/batch
func (h *PropertyHandler) BatchEmbeddings(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Embeddings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "embeddings must not be empty"})
		return
	}

	success, errs := h.repo.BatchUpdateEmbeddings(req.Embeddings)
	c.JSON(http.StatusOK, model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// attachImageURLs fills the serve URLs for image records.
func attachImageURLs(images []model.PropertyImage) {
	for i := range images {
		images[i].ImageURL = "/api/upload/images/" + images[i].FilePath
		if images[i].ThumbnailPath != nil {
			images[i].ThumbnailURL = "/api/upload/thumbnails/" + images[i].FilePath
		}
	}
}
