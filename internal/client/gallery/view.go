// Package gallery keeps the client's in-memory copy of the signed-in user's
// gallery. The server is authoritative: local changes are applied as pending
// and rolled back when the server does not confirm them.
package gallery

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// Store is the remote gallery. *api.Client implements it.
type Store interface {
	ListGallery(ctx context.Context) ([]models.GalleryItem, error)
	AddToGallery(ctx context.Context, image string, info models.PlantInfo) (*models.GalleryItem, bool, error)
	RemoveFromGallery(ctx context.Context, id string) error
	ClearGallery(ctx context.Context) error
}

// Item is a gallery entry as shown to the user.
type Item struct {
	models.GalleryItem
	// Pending is set while the server has not yet confirmed the item.
	Pending bool
}

// View is the gallery of the current identity, newest first.
type View struct {
	mu       sync.Mutex
	store    Store
	identity string
	gen      uint64
	items    []Item
	log      *zap.Logger
}

// NewView creates an empty View with no identity.
func NewView(store Store, log *zap.Logger) *View {
	if log == nil {
		log = zap.NewNop()
	}
	return &View{store: store, log: log}
}

// Identity returns the identity the view currently belongs to.
func (v *View) Identity() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.identity
}

// SetIdentity switches the view to identity and reloads it. store, when
// non-nil, replaces the store bound to the previous identity. An empty
// identity clears the view. A reload that finishes after a later identity
// change is discarded.
func (v *View) SetIdentity(ctx context.Context, identity string, store Store) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.identity = identity
	if store != nil {
		v.store = store
	}
	store = v.store
	v.items = nil
	v.mu.Unlock()

	if identity == "" {
		return nil
	}
	return v.reload(ctx, gen, store)
}

// Reload fetches the current identity's gallery again.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	gen, identity, store := v.gen, v.identity, v.store
	v.mu.Unlock()

	if identity == "" {
		return nil
	}
	return v.reload(ctx, gen, store)
}

func (v *View) reload(ctx context.Context, gen uint64, store Store) error {
	items, err := store.ListGallery(ctx)
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return nil
	}
	v.items = make([]Item, 0, len(items))
	for _, it := range items {
		v.items = append(v.items, Item{GalleryItem: it})
	}
	return nil
}

// Items returns a snapshot of the view.
func (v *View) Items() []Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// Add saves image and info. The item shows up as pending at the top right
// away; it is confirmed with the server's copy, or removed again when the
// server fails or drops it as a duplicate. Without an identity nothing
// happens.
func (v *View) Add(ctx context.Context, image string, info models.PlantInfo) (*models.GalleryItem, bool, error) {
	v.mu.Lock()
	if v.identity == "" {
		v.mu.Unlock()
		return nil, false, nil
	}
	gen, store := v.gen, v.store
	pendingID := "pending-" + uuid.NewString()
	v.items = slices.Insert(v.items, 0, Item{
		GalleryItem: models.GalleryItem{ID: pendingID, Image: image, PlantInfo: info},
		Pending:     true,
	})
	v.mu.Unlock()

	item, saved, err := store.AddToGallery(ctx, image, info)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return item, saved, err
	}
	i := slices.IndexFunc(v.items, func(it Item) bool { return it.ID == pendingID })
	if i < 0 {
		return item, saved, err
	}
	switch {
	case err != nil:
		v.items = slices.Delete(v.items, i, i+1)
		v.log.Warn("gallery add rolled back", zap.Error(err))
		return nil, false, fmt.Errorf("save to gallery: %w", err)
	case !saved:
		v.items = slices.Delete(v.items, i, i+1)
		return nil, false, nil
	}
	v.items[i] = Item{GalleryItem: *item}
	return item, true, nil
}

// Remove deletes the item with id. The item disappears immediately and is
// put back in place if the server fails.
func (v *View) Remove(ctx context.Context, id string) error {
	v.mu.Lock()
	if v.identity == "" {
		v.mu.Unlock()
		return nil
	}
	gen, store := v.gen, v.store
	i := slices.IndexFunc(v.items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		v.mu.Unlock()
		return nil
	}
	removed := v.items[i]
	v.items = slices.Delete(v.items, i, i+1)
	v.mu.Unlock()

	err := store.RemoveFromGallery(ctx, id)
	if err == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen {
		v.items = slices.Insert(v.items, min(i, len(v.items)), removed)
	}
	v.log.Warn("gallery remove rolled back", zap.String("id", id), zap.Error(err))
	return fmt.Errorf("remove from gallery: %w", err)
}

// Clear deletes every item, restoring them if the server fails.
func (v *View) Clear(ctx context.Context) error {
	v.mu.Lock()
	if v.identity == "" {
		v.mu.Unlock()
		return nil
	}
	gen, store := v.gen, v.store
	previous := v.items
	v.items = nil
	v.mu.Unlock()

	err := store.ClearGallery(ctx)
	if err == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen && len(v.items) == 0 {
		v.items = previous
	}
	return fmt.Errorf("clear gallery: %w", err)
}
