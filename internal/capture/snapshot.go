package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/FloraFacts/internal/imaging"
)

// ErrNoMatchingCamera is returned when no configured camera satisfies an
// exact facing-mode request.
var ErrNoMatchingCamera = errors.New("no camera matches the requested facing mode")

// SnapshotDevice is a Device backed by HTTP endpoints that return the
// current camera frame as JPEG or PNG, keyed by facing mode. IP cameras and
// most phone webcam apps expose such an endpoint.
type SnapshotDevice struct {
	URLs     map[string]string
	Client   *http.Client
	Interval time.Duration
}

// Open connects to the camera selected by c and starts refreshing frames in
// the background until the stream is stopped.
func (d *SnapshotDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	url, err := d.pick(c)
	if err != nil {
		return nil, err
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	interval := d.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s := &snapshotStream{url: url, client: client, cancel: cancel}

	img, err := s.fetch(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	s.set(img)

	s.wg.Add(1)
	go s.poll(pollCtx, interval)
	return s, nil
}

func (d *SnapshotDevice) pick(c Constraints) (string, error) {
	if url, ok := d.URLs[c.FacingMode]; ok {
		return url, nil
	}
	if c.Exact || len(d.URLs) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoMatchingCamera, c.FacingMode)
	}
	modes := make([]string, 0, len(d.URLs))
	for m := range d.URLs {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return d.URLs[modes[0]], nil
}

type snapshotStream struct {
	url    string
	client *http.Client
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu    sync.RWMutex
	frame image.Image
}

func (s *snapshotStream) poll(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed refresh keeps the previous frame.
			if img, err := s.fetch(ctx); err == nil {
				s.set(img)
			}
		}
	}
}

func (s *snapshotStream) fetch(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot request: unexpected status %d", resp.StatusCode)
	}
	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return img, nil
}

func (s *snapshotStream) set(img image.Image) {
	s.mu.Lock()
	s.frame = img
	s.mu.Unlock()
}

func (s *snapshotStream) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame != nil
}

func (s *snapshotStream) Dimensions() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return 0, 0
	}
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *snapshotStream) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil, ErrStreamNotReady
	}
	return s.frame, nil
}

func (s *snapshotStream) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}
