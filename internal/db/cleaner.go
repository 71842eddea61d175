package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// PurgeDeleted permanently removes plants soft-deleted before cutoff.
func PurgeDeleted(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM plants
         WHERE deleted_at IS NOT NULL
           AND deleted_at < $1
    `, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartSoftDeleteCleaner purges old soft-deleted plants every interval
// until ctx is cancelled.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := PurgeDeleted(ctx, db, time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to clean soft-deleted plants", zap.Error(err))
					continue
				}
				if rows > 0 {
					log.Info("cleaned soft-deleted plants", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
