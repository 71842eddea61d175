// Package session holds the client-side state of one user session: the
// current identification result and the gallery view it is saved into.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/client/gallery"
	"github.com/atinyakov/FloraFacts/internal/identify"
	"github.com/atinyakov/FloraFacts/internal/models"
	"github.com/atinyakov/FloraFacts/internal/plantinfo"
)

var (
	// ErrNothingToSave is returned by Save when there is no current result.
	ErrNothingToSave = errors.New("no identification result to save")
	// ErrIdentification wraps every failure of Identify other than
	// identify.ErrSuperseded.
	ErrIdentification = errors.New("identification failed")
)

// Identifier returns the model's raw reply for an image. *api.Client
// implements it.
type Identifier interface {
	Identify(ctx context.Context, dataURL string) (string, error)
}

// Result is a parsed identification together with its photo.
type Result struct {
	Image string           `json:"image"`
	Info  models.PlantInfo `json:"plantInfo"`
	// Raw is the unparsed model reply.
	Raw          string    `json:"raw"`
	IdentifiedAt time.Time `json:"identifiedAt"`
}

// Session owns the current result. Only the most recently started
// identification may set it; starting a new one cancels the previous.
type Session struct {
	mu      sync.Mutex
	id      Identifier
	view    *gallery.View
	log     *zap.Logger
	seq     uint64
	cancel  context.CancelFunc
	current *Result
}

// New creates a Session that identifies with id and saves into view.
func New(id Identifier, view *gallery.View, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{id: id, view: view, log: log}
}

// Identify identifies dataURL and makes it the current result. The current
// result is cleared when the identification starts. If another Identify is
// started before this one finishes, this one is cancelled and returns
// identify.ErrSuperseded.
func (s *Session) Identify(ctx context.Context, dataURL string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.current = nil
	s.mu.Unlock()

	text, err := s.id.Identify(ctx, dataURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.log.Debug("discarding stale identification result")
		return nil, identify.ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentification, err)
	}

	res := &Result{
		Image:        dataURL,
		Info:         plantinfo.Parse(text),
		Raw:          text,
		IdentifiedAt: time.Now(),
	}
	s.current = res
	return res, nil
}

// Current returns the current result, or nil.
func (s *Session) Current() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Restore makes r the current result without identifying again.
func (s *Session) Restore(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
}

// Reset cancels any identification in flight and clears the current result.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.current = nil
}

// Save adds the current result to the gallery. It reports false for an
// anonymous session or a duplicate species.
func (s *Session) Save(ctx context.Context) (*models.GalleryItem, bool, error) {
	cur := s.Current()
	if cur == nil {
		return nil, false, ErrNothingToSave
	}
	return s.view.Add(ctx, cur.Image, cur.Info)
}

// Gallery returns the session's gallery view.
func (s *Session) Gallery() *gallery.View {
	return s.view
}
