package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// PostgresProfileRepository stores user profiles and removes account data.
type PostgresProfileRepository struct {
	DB *sql.DB
}

// NewPostgresProfileRepository creates a PostgresProfileRepository using the provided *sql.DB.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{DB: db}
}

// GetProfile returns the stored profile, or nil if the user has none yet.
func (r *PostgresProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := r.DB.QueryRowContext(ctx, `
		SELECT avatar, updated_at FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.Avatar, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return &p, nil
}

// UpsertAvatar creates the profile or replaces its avatar.
func (r *PostgresProfileRepository) UpsertAvatar(ctx context.Context, userID, avatar string) (*models.Profile, error) {
	p := models.Profile{UserID: userID, Avatar: avatar}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, avatar) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET avatar = EXCLUDED.avatar, updated_at = now()
		RETURNING updated_at
	`, userID, avatar).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("UpsertAvatar: %w", err)
	}
	return &p, nil
}

// DeleteUserData permanently removes every plant and the profile of userID
// in one transaction.
func (r *PostgresProfileRepository) DeleteUserData(ctx context.Context, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plants WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete plants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
