package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"aihouse/internal/model"
)

var ErrNotFound = errors.New("record not found")

// propertyColumns lists every property column except the embedding, which
// is nullable and only touched by the embedding endpoints.
const propertyColumns = `id, community_name, street_address, floor_info, price, property_type,
	furniture_appliances, decoration_status, room_count, area, description,
	contact_phone, parsed_confidence, created_at, updated_at`

// PostgresRepository provides PostgreSQL access for listings, images and
// users.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a PostgreSQL connection pool
func NewPostgresRepository(dsn string, maxConnections, maxIdleConnections int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(maxConnections)
	db.SetMaxIdleConns(maxIdleConnections)

	log.Println("Connected to PostgreSQL")
	return &PostgresRepository{db: db}, nil
}

// DB exposes the underlying pool for the query executor.
func (r *PostgresRepository) DB() *sqlx.DB {
	return r.db
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// CreateProperty inserts a listing and returns it with generated fields.
func (r *PostgresRepository) CreateProperty(req *model.PropertyCreateRequest) (*model.Property, error) {
	query := fmt.Sprintf(`
		INSERT INTO properties (
			community_name, street_address, floor_info, price, property_type,
			furniture_appliances, decoration_status, room_count, area,
			description, contact_phone, parsed_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s`, propertyColumns)

	var prop model.Property
	err := r.db.Get(&prop, query,
		req.CommunityName, req.StreetAddress, req.FloorInfo, req.Price, req.PropertyType,
		req.FurnitureAppliances, req.DecorationStatus, req.RoomCount, req.Area,
		req.Description, req.ContactPhone, req.ParsedConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return &prop, nil
}

// GetPropertyByID fetches a listing with its images.
func (r *PostgresRepository) GetPropertyByID(id int64) (*model.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)

	var prop model.Property
	if err := r.db.Get(&prop, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	images, err := r.ListImagesByProperty(id)
	if err != nil {
		return nil, err
	}
	prop.Images = images
	return &prop, nil
}

// SearchProperties filters listings and returns one page plus the total
// match count. Filters combine with AND; text filters match case
// insensitively on substrings.
func (r *PostgresRepository) SearchProperties(params *model.PropertySearchParams) ([]model.Property, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	addCondition := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}

	if params.PropertyType != nil {
		addCondition("property_type = $%d", *params.PropertyType)
	}
	if params.Community != nil && *params.Community != "" {
		addCondition("community_name ILIKE $%d", "%"+*params.Community+"%")
	}
	if params.Street != nil && *params.Street != "" {
		addCondition("street_address ILIKE $%d", "%"+*params.Street+"%")
	}
	if params.MinPrice != nil {
		addCondition("price >= $%d", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		addCondition("price <= $%d", *params.MaxPrice)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM properties %s`, where)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.Size
	if size < 1 || size > 100 {
		size = 20
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM properties %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		propertyColumns, where, argPos, argPos+1)
	args = append(args, size, (page-1)*size)

	properties := []model.Property{}
	if err := r.db.Select(&properties, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search properties: %w", err)
	}
	return properties, total, nil
}

// UpdateProperty applies the non-nil fields of req to a listing.
func (r *PostgresRepository) UpdateProperty(id int64, req *model.PropertyUpdateRequest) (*model.Property, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if req.CommunityName != nil {
		addSet("community_name", *req.CommunityName)
	}
	if req.StreetAddress != nil {
		addSet("street_address", *req.StreetAddress)
	}
	if req.FloorInfo != nil {
		addSet("floor_info", *req.FloorInfo)
	}
	if req.Price != nil {
		addSet("price", *req.Price)
	}
	if req.PropertyType != nil {
		addSet("property_type", *req.PropertyType)
	}
	if req.FurnitureAppliances != nil {
		addSet("furniture_appliances", *req.FurnitureAppliances)
	}
	if req.DecorationStatus != nil {
		addSet("decoration_status", *req.DecorationStatus)
	}
	if req.RoomCount != nil {
		addSet("room_count", *req.RoomCount)
	}
	if req.Area != nil {
		addSet("area", *req.Area)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.ContactPhone != nil {
		addSet("contact_phone", *req.ContactPhone)
	}

	if len(sets) == 0 {
		return r.GetPropertyByID(id)
	}

	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE properties SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argPos, propertyColumns)
	args = append(args, id)

	var prop model.Property
	if err := r.db.Get(&prop, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	return &prop, nil
}

// DeleteProperty removes a listing. Images cascade at the database level;
// the caller is responsible for cleaning up stored files.
func (r *PostgresRepository) DeleteProperty(id int64) error {
	result, err := r.db.Exec(`DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEmbedding stores the embedding vector for a property
func (r *PostgresRepository) UpdateEmbedding(propertyID int64, embedding []float32) error {
	result, err := r.db.Exec(`UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`,
		pgvector.NewVector(embedding), propertyID)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// BatchUpdateEmbeddings updates multiple embeddings in a single transaction
func (r *PostgresRepository) BatchUpdateEmbeddings(items []model.EmbeddingItem) (int, []string) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to begin transaction: %v", err)}
	}
	defer tx.Rollback()

	success := 0
	errs := []string{}
	for _, item := range items {
		result, err := tx.Exec(`UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`,
			pgvector.NewVector(item.Embedding), item.PropertyID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("property %d: %v", item.PropertyID, err))
			continue
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			errs = append(errs, fmt.Sprintf("property %d: not found", item.PropertyID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		return 0, []string{fmt.Sprintf("failed to commit transaction: %v", err)}
	}
	return success, errs
}

// InsertImage records an uploaded image. The first image of a property
// becomes primary automatically.
func (r *PostgresRepository) InsertImage(img *model.PropertyImage) (*model.PropertyImage, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM property_images WHERE property_id = $1`, img.PropertyID); err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	var saved model.PropertyImage
	err := r.db.Get(&saved, `
		INSERT INTO property_images (property_id, file_path, thumbnail_path, original_filename, file_size, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, property_id, file_path, thumbnail_path, original_filename, file_size, is_primary, created_at`,
		img.PropertyID, img.FilePath, img.ThumbnailPath, img.OriginalFilename, img.FileSize, count == 0)
	if err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}
	return &saved, nil
}

// GetImageByID fetches one image record.
func (r *PostgresRepository) GetImageByID(id int64) (*model.PropertyImage, error) {
	var img model.PropertyImage
	err := r.db.Get(&img, `
		SELECT id, property_id, file_path, thumbnail_path, original_filename, file_size, is_primary, created_at
		FROM property_images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// ListImagesByProperty returns a property's images, primary first.
func (r *PostgresRepository) ListImagesByProperty(propertyID int64) ([]model.PropertyImage, error) {
	images := []model.PropertyImage{}
	err := r.db.Select(&images, `
		SELECT id, property_id, file_path, thumbnail_path, original_filename, file_size, is_primary, created_at
		FROM property_images WHERE property_id = $1
		ORDER BY is_primary DESC, created_at ASC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

// DeleteImage removes one image record.
func (r *PostgresRepository) DeleteImage(id int64) error {
	result, err := r.db.Exec(`DELETE FROM property_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPrimaryImage marks one image as primary and clears the flag on the
// property's other images.
func (r *PostgresRepository) SetPrimaryImage(propertyID, imageID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE property_images SET is_primary = FALSE WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("failed to clear primary flags: %w", err)
	}

	result, err := tx.Exec(`UPDATE property_images SET is_primary = TRUE WHERE id = $1 AND property_id = $2`,
		imageID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to set primary image: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set primary image: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// GetUserByUsername fetches an active user account.
func (r *PostgresRepository) GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Get(&user, `
		SELECT id, username, password_hash, email, is_active, created_at, last_login_at
		FROM users WHERE username = $1 AND is_active = TRUE`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *PostgresRepository) UpdateLastLogin(userID int64) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
