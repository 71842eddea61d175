// Package service provides gallery and profile business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/imaging"
	"github.com/atinyakov/FloraFacts/internal/models"
)

// GalleryRepository defines the persistence operations needed by the GalleryService.
type GalleryRepository interface {
	// InsertPlant stores item unless the user already has a live item with the
	// same name and scientific name. It reports whether a row was written and
	// sets item.Timestamp when it was.
	InsertPlant(ctx context.Context, userID string, item *models.GalleryItem) (bool, error)
	// ListPlants returns the user's items, newest first.
	ListPlants(ctx context.Context, userID string) ([]models.GalleryItem, error)
	// DeletePlants removes the items with the given ids.
	DeletePlants(ctx context.Context, userID string, ids []string) error
	// DeleteAllPlants removes every item of the user.
	DeleteAllPlants(ctx context.Context, userID string) error
}

// GalleryService keeps per-user collections of identified plants.
// Every operation is a no-op for an empty userID.
type GalleryService struct {
	repo     GalleryRepository
	log      *zap.Logger
	compress func(string) (string, error)
	newID    func() string
}

// NewGalleryService constructs a GalleryService with the provided repository.
func NewGalleryService(repo GalleryRepository, log *zap.Logger) *GalleryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GalleryService{
		repo:     repo,
		log:      log,
		compress: imaging.CompressIfLarge,
		newID:    uuid.NewString,
	}
}

// Add saves image and info to the user's gallery. Empty fields of info get
// their defaults and images above imaging.MaxStoredBytes are recompressed
// first. A duplicate species is dropped silently: the result is
// (nil, false, nil).
func (s *GalleryService) Add(ctx context.Context, userID, image string, info models.PlantInfo) (*models.GalleryItem, bool, error) {
	if userID == "" {
		return nil, false, nil
	}

	stored, err := s.compress(image)
	if err != nil {
		return nil, false, fmt.Errorf("compress image: %w", err)
	}
	if len(stored) < len(image) {
		s.log.Debug("gallery image compressed",
			zap.String("user", userID),
			zap.Int("from", len(image)),
			zap.Int("to", len(stored)))
	}

	info = info.Normalize()
	item := &models.GalleryItem{
		ID:        s.newID(),
		Image:     stored,
		PlantInfo: info,
	}
	saved, err := s.repo.InsertPlant(ctx, userID, item)
	if err != nil {
		return nil, false, err
	}
	if !saved {
		s.log.Debug("duplicate plant not saved",
			zap.String("user", userID),
			zap.String("name", info.Name),
			zap.String("scientific_name", info.ScientificName))
		return nil, false, nil
	}
	return item, true, nil
}

// Remove deletes one item. Unknown ids are ignored.
func (s *GalleryService) Remove(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return nil
	}
	return s.repo.DeletePlants(ctx, userID, []string{id})
}

// List returns the user's items ordered by timestamp, newest first.
func (s *GalleryService) List(ctx context.Context, userID string) ([]models.GalleryItem, error) {
	if userID == "" {
		return []models.GalleryItem{}, nil
	}
	return s.repo.ListPlants(ctx, userID)
}

// ClearAll deletes every item of the user.
func (s *GalleryService) ClearAll(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.repo.DeleteAllPlants(ctx, userID)
}
