package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// PropertyType distinguishes rental listings from listings for sale.
type PropertyType string

const (
	PropertyTypeRent PropertyType = "rent"
	PropertyTypeSale PropertyType = "sale"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	return t == PropertyTypeRent || t == PropertyTypeSale
}

// Property represents a persisted property listing
type Property struct {
	ID                  int64           `json:"id" db:"id"`
	CommunityName       string          `json:"community_name" db:"community_name"`
	StreetAddress       string          `json:"street_address" db:"street_address"`
	FloorInfo           *string         `json:"floor_info,omitempty" db:"floor_info"`
	Price               float64         `json:"price" db:"price"`
	PropertyType        PropertyType    `json:"property_type" db:"property_type"`
	FurnitureAppliances *string         `json:"furniture_appliances,omitempty" db:"furniture_appliances"`
	DecorationStatus    *string         `json:"decoration_status,omitempty" db:"decoration_status"`
	RoomCount           *string         `json:"room_count,omitempty" db:"room_count"`
	Area                *float64        `json:"area,omitempty" db:"area"`
	Description         *string         `json:"description,omitempty" db:"description"`
	ContactPhone        *string         `json:"contact_phone,omitempty" db:"contact_phone"`
	ParsedConfidence    *float64        `json:"parsed_confidence,omitempty" db:"parsed_confidence"`
	Embedding           pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	Images              []PropertyImage `json:"images,omitempty" db:"-"`
}

// PropertyImage represents an uploaded image associated with a property
type PropertyImage struct {
	ID               int64     `json:"id" db:"id"`
	PropertyID       int64     `json:"property_id" db:"property_id"`
	FilePath         string    `json:"-" db:"file_path"`
	ThumbnailPath    *string   `json:"-" db:"thumbnail_path"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	FileSize         int64     `json:"file_size" db:"file_size"`
	IsPrimary        bool      `json:"is_primary" db:"is_primary"`
	ImageURL         string    `json:"image_url" db:"-"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty" db:"-"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ParsedListing is the result of free-text listing extraction.
// Price is the monthly rent for rentals, or the total price in
// ten-thousand-yuan units for sales.
type ParsedListing struct {
	PropertyType        PropertyType `json:"property_type"`
	CommunityName       *string      `json:"community_name,omitempty"`
	StreetAddress       *string      `json:"street_address,omitempty"`
	FloorInfo           *string      `json:"floor_info,omitempty"`
	Price               *float64     `json:"price,omitempty"`
	RoomCount           *string      `json:"room_count,omitempty"`
	Area                *float64     `json:"area,omitempty"`
	FurnitureAppliances *string      `json:"furniture_appliances,omitempty"`
	DecorationStatus    *string      `json:"decoration_status,omitempty"`
	ContactPhone        *string      `json:"contact_phone,omitempty"`
	Confidence          float64      `json:"confidence"`
	ValidationWarnings  []string     `json:"validation_warnings"`
	IsFallback          bool         `json:"is_fallback"`
}

// PropertyCreateRequest is the payload for creating a listing
type PropertyCreateRequest struct {
	CommunityName       string       `json:"community_name" binding:"required"`
	StreetAddress       string       `json:"street_address" binding:"required"`
	FloorInfo           *string      `json:"floor_info,omitempty"`
	Price               float64      `json:"price" binding:"required"`
	PropertyType        PropertyType `json:"property_type" binding:"required"`
	FurnitureAppliances *string      `json:"furniture_appliances,omitempty"`
	DecorationStatus    *string      `json:"decoration_status,omitempty"`
	RoomCount           *string      `json:"room_count,omitempty"`
	Area                *float64     `json:"area,omitempty"`
	Description         *string      `json:"description,omitempty"`
	ContactPhone        *string      `json:"contact_phone,omitempty"`
	ParsedConfidence    *float64     `json:"parsed_confidence,omitempty"`
}

// PropertyUpdateRequest is the payload for partial listing updates.
// Only non-nil fields are applied.
type PropertyUpdateRequest struct {
	CommunityName       *string       `json:"community_name,omitempty"`
	StreetAddress       *string       `json:"street_address,omitempty"`
	FloorInfo           *string       `json:"floor_info,omitempty"`
	Price               *float64      `json:"price,omitempty"`
	PropertyType        *PropertyType `json:"property_type,omitempty"`
	FurnitureAppliances *string       `json:"furniture_appliances,omitempty"`
	DecorationStatus    *string       `json:"decoration_status,omitempty"`
	RoomCount           *string       `json:"room_count,omitempty"`
	Area                *float64      `json:"area,omitempty"`
	Description         *string       `json:"description,omitempty"`
	ContactPhone        *string       `json:"contact_phone,omitempty"`
}

// PropertySearchParams represents listing search filters
type PropertySearchParams struct {
	Page         int           `form:"page"`
	Size         int           `form:"size"`
	PropertyType *PropertyType `form:"property_type"`
	Community    *string       `form:"community"`
	Street       *string       `form:"street"`
	MinPrice     *float64      `form:"min_price"`
	MaxPrice     *float64      `form:"max_price"`
}

// PropertyListResponse is a paginated listing page
type PropertyListResponse struct {
	Items      []Property `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalPages int        `json:"total_pages"`
}

// ParseTextRequest is the payload for free-text listing extraction
type ParseTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding with property info
type EmbeddingItem struct {
	PropertyID int64     `json:"property_id" binding:"required"`
	Embedding  []float32 `json:"embedding" binding:"required"`
	Text       string    `json:"text,omitempty"` // The text used to generate embedding
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
