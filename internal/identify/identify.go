// Package identify asks a generative model to identify the plant in an
// image and returns the model's raw text.
package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/imaging"
)

var (
	// ErrNotConfigured means no model credential is set. No request is made.
	ErrNotConfigured = errors.New("gemini api key is not configured")
	// ErrNotAPlant means the model judged that the image does not show a plant.
	ErrNotAPlant = errors.New("no plant detected")
	// ErrOverloaded means the model is temporarily unavailable.
	ErrOverloaded = errors.New("model is overloaded")
	// ErrInvalidImage means the input is not a base64 data URL.
	ErrInvalidImage = errors.New("invalid image")
	// ErrSuperseded is returned to a request cancelled by a newer one from
	// the same identity.
	ErrSuperseded = errors.New("identification superseded by a newer request")
)

// Generator sends one prompt plus image to the model and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

const verificationPrompt = `Is this image clearly showing a plant? Please respond with ONLY "yes" or "no".
If the image is unclear, blurry, or doesn't primarily show a plant, respond with "no".`

const analysisPrompt = `Analyze this plant image and return ONLY a JSON object with the following structure:
{
  "name": "Common name of the plant",
  "scientificName": "Full botanical/Latin name",
  "description": "Brief, concise description (1-2 sentences max)",
  "careInstructions": "Key care tips",
  "additionalDetails": {
    "nativeTo": "Region of origin",
    "sunExposure": "Light requirements",
    "waterNeeds": "Watering frequency",
    "soilType": "Preferred soil conditions",
    "growthRate": "Typical growth characteristics",
    "bloomSeason": "Flowering period"
  }
}`

// Client runs the verification and analysis prompts.
type Client struct {
	gen     Generator
	timeout time.Duration
	verify  bool
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each Identify call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithoutVerification skips the "is this a plant" prompt.
func WithoutVerification() Option {
	return func(c *Client) { c.verify = false }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a Client. gen may be nil when no credential is
// configured; every Identify call then fails with ErrNotConfigured.
func NewClient(gen Generator, opts ...Option) *Client {
	c := &Client{gen: gen, timeout: 60 * time.Second, verify: true, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Identify returns the model's unparsed answer for the image in dataURL.
func (c *Client) Identify(ctx context.Context, dataURL string) (string, error) {
	if c.gen == nil {
		return "", ErrNotConfigured
	}

	mimeType, data, err := imaging.DecodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.verify {
		answer, err := c.gen.Generate(ctx, verificationPrompt, data, mimeType)
		if err != nil {
			return "", c.classify(err)
		}
		if !strings.Contains(strings.ToLower(answer), "yes") {
			return "", ErrNotAPlant
		}
	}

	text, err := c.gen.Generate(ctx, analysisPrompt, data, mimeType)
	if err != nil {
		return "", c.classify(err)
	}
	return text, nil
}

func (c *Client) classify(err error) error {
	c.log.Error("plant identification failed", zap.Error(err))
	switch {
	case errors.Is(err, ErrOverloaded), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case strings.Contains(strings.ToLower(err.Error()), "model is overloaded"):
		return fmt.Errorf("%w: %w", ErrOverloaded, err)
	}
	return fmt.Errorf("failed to identify plant: %w", err)
}

// Message returns the user-facing text for an Identify error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "Gemini API key is not configured"
	case errors.Is(err, ErrNotAPlant):
		return "No plant detected. Please try using a clear picture of a plant."
	case errors.Is(err, ErrOverloaded):
		return "The model is overloaded. Please try again in a few moments."
	case errors.Is(err, ErrInvalidImage):
		return "The image could not be read. Please try another photo."
	case errors.Is(err, ErrSuperseded):
		return "A newer identification replaced this one."
	case errors.Is(err, context.DeadlineExceeded):
		return "Identification timed out. Please try again."
	}
	return "Failed to identify plant"
}
