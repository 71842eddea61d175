// Package repository provides persistence implementations for the gallery
// and profile services using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/FloraFacts/internal/models"
	"github.com/lib/pq"
)

// PostgresGalleryRepository stores gallery items in the plants table.
type PostgresGalleryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresGalleryRepository creates a PostgresGalleryRepository using the provided *sql.DB.
func NewPostgresGalleryRepository(db *sql.DB) *PostgresGalleryRepository {
	return &PostgresGalleryRepository{DB: db}
}

// InsertPlant stores item for userID and sets item.Timestamp to the time the
// database assigned. If a live item with the same name and scientific name
// already exists for the user, nothing is written and false is returned.
func (r *PostgresGalleryRepository) InsertPlant(ctx context.Context, userID string, item *models.GalleryItem) (bool, error) {
	info, err := json.Marshal(item.PlantInfo)
	if err != nil {
		return false, fmt.Errorf("marshal plant info: %w", err)
	}

	var created time.Time
	err = r.DB.QueryRowContext(ctx, `
		INSERT INTO plants (id, user_id, image, name, scientific_name, plant_info)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, name, scientific_name) WHERE deleted_at IS NULL DO NOTHING
		RETURNING created_at
	`, item.ID, userID, item.Image, item.PlantInfo.Name, item.PlantInfo.ScientificName, info).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("InsertPlant: %w", err)
	}

	item.Timestamp = created
	return true, nil
}

// ListPlants returns the live items of userID, newest first.
func (r *PostgresGalleryRepository) ListPlants(ctx context.Context, userID string) ([]models.GalleryItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, image, plant_info, created_at FROM plants
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListPlants: %w", err)
	}
	defer rows.Close()

	items := make([]models.GalleryItem, 0)
	for rows.Next() {
		var (
			it  models.GalleryItem
			raw []byte
		)
		if err := rows.Scan(&it.ID, &it.Image, &raw, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(raw, &it.PlantInfo); err != nil {
			return nil, fmt.Errorf("decode plant info %s: %w", it.ID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPlants: %w", err)
	}
	return items, nil
}

// DeletePlants soft-deletes the items with the given ids. Unknown ids are ignored.
func (r *PostgresGalleryRepository) DeletePlants(ctx context.Context, userID string, ids []string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE plants SET deleted_at = now()
		WHERE user_id = $1 AND id = ANY($2) AND deleted_at IS NULL
	`, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("DeletePlants: %w", err)
	}
	return nil
}

// DeleteAllPlants soft-deletes every live item of userID.
func (r *PostgresGalleryRepository) DeleteAllPlants(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE plants SET deleted_at = now()
		WHERE user_id = $1 AND deleted_at IS NULL
	`, userID)
	if err != nil {
		return fmt.Errorf("DeleteAllPlants: %w", err)
	}
	return nil
}
