package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// ErrInvalidAvatar is returned when the requested avatar is not one of
// models.AvatarOptions.
var ErrInvalidAvatar = errors.New("invalid avatar")

// ProfileRepository defines the persistence operations needed by the ProfileService.
type ProfileRepository interface {
	// GetProfile returns nil without error when the user has no profile.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertAvatar(ctx context.Context, userID, avatar string) (*models.Profile, error)
	// DeleteUserData removes the profile and every gallery item of the user.
	DeleteUserData(ctx context.Context, userID string) error
}

// ProfileService manages display preferences and account data removal.
type ProfileService struct {
	repo ProfileRepository
	log  *zap.Logger
}

// NewProfileService constructs a ProfileService with the provided repository.
func NewProfileService(repo ProfileRepository, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{repo: repo, log: log}
}

// Get returns the user's profile, falling back to models.DefaultAvatar.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &models.Profile{UserID: userID, Avatar: models.DefaultAvatar}, nil
	}
	return p, nil
}

// SetAvatar stores avatar for the user.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, avatar string) (*models.Profile, error) {
	if !models.ValidAvatar(avatar) {
		return nil, ErrInvalidAvatar
	}
	return s.repo.UpsertAvatar(ctx, userID, avatar)
}

// DeleteAccountData permanently removes everything stored for the user.
func (s *ProfileService) DeleteAccountData(ctx context.Context, userID string) error {
	if err := s.repo.DeleteUserData(ctx, userID); err != nil {
		return err
	}
	s.log.Info("account data deleted", zap.String("user", userID))
	return nil
}
