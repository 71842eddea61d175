package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/atinyakov/FloraFacts/internal/imaging"
)

var (
	// ErrStreamNotReady is returned when a frame is requested before the
	// stream has buffered a frame with known dimensions.
	ErrStreamNotReady = errors.New("video stream not ready")
	// ErrCameraUnavailable is returned when neither the exact nor the
	// relaxed camera request could be satisfied.
	ErrCameraUnavailable = errors.New("unable to access camera, please check permissions")
	// ErrNoStream is returned by Capture when no stream is open.
	ErrNoStream = errors.New("camera is not started")
)

// FacingEnvironment selects the rear camera.
const FacingEnvironment = "environment"

// Constraints describe the requested stream.
type Constraints struct {
	// FacingMode is "environment" or "user".
	FacingMode string
	// Exact makes FacingMode mandatory instead of a preference.
	Exact       bool
	IdealWidth  int
	IdealHeight int
}

// Device opens camera streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an open camera stream. Stop releases it and must be safe to
// call more than once.
type Stream interface {
	// Ready reports whether a frame is buffered.
	Ready() bool
	// Dimensions returns the size of the buffered frame.
	Dimensions() (int, int)
	// Frame returns the current frame.
	Frame() (image.Image, error)
	Stop()
}

// Camera owns at most one open stream at a time.
type Camera struct {
	dev          Device
	pollInterval time.Duration

	mu     sync.Mutex
	stream Stream
}

// NewCamera returns a Camera over dev.
func NewCamera(dev Device) *Camera {
	return &Camera{dev: dev, pollInterval: 50 * time.Millisecond}
}

// Start opens the rear camera. The exact request is tried first and a
// relaxed one once after it; any previously open stream is released.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()

	exact := Constraints{FacingMode: FacingEnvironment, Exact: true, IdealWidth: 1280, IdealHeight: 720}
	s, err := c.dev.Open(ctx, exact)
	if err != nil {
		relaxed := exact
		relaxed.Exact = false
		var fallbackErr error
		s, fallbackErr = c.dev.Open(ctx, relaxed)
		if fallbackErr != nil {
			return fmt.Errorf("%w: %w", ErrCameraUnavailable, errors.Join(err, fallbackErr))
		}
	}
	c.stream = s
	return nil
}

// WaitReady blocks until the open stream has a frame with non-zero
// dimensions or ctx is done.
func (c *Camera) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		c.mu.Lock()
		s := c.stream
		c.mu.Unlock()
		if s == nil {
			return ErrNoStream
		}
		if streamReady(s) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrStreamNotReady, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Capture samples the current frame, encodes it as a JPEG data URL and
// releases the stream. When the stream is not ready yet it returns
// ErrStreamNotReady and keeps the stream open.
func (c *Camera) Capture() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return "", ErrNoStream
	}
	if !streamReady(c.stream) {
		return "", ErrStreamNotReady
	}

	frame, err := c.stream.Frame()
	if err != nil {
		c.releaseLocked()
		return "", fmt.Errorf("failed to capture image: %w", err)
	}
	c.releaseLocked()

	out, err := imaging.EncodeJPEG(frame, imaging.CaptureQuality)
	if err != nil {
		return "", fmt.Errorf("failed to capture image: %w", err)
	}
	return out, nil
}

// Cancel releases the open stream, if any.
func (c *Camera) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// Close releases the open stream. It satisfies io.Closer.
func (c *Camera) Close() error {
	c.Cancel()
	return nil
}

// Active reports whether a stream is open.
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *Camera) releaseLocked() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
}

func streamReady(s Stream) bool {
	if !s.Ready() {
		return false
	}
	w, h := s.Dimensions()
	return w > 0 && h > 0
}
