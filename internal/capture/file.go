// Package capture acquires still images from files or cameras and returns
// them as data URLs, so callers do not care where an image came from.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/atinyakov/FloraFacts/internal/imaging"
)

// MaxFileBytes caps how much of an uploaded file is read.
const MaxFileBytes = 20 << 20

// ErrNotImage is returned when the selected file is not an image in a
// format the service can store.
var ErrNotImage = errors.New("selected file is not an image")

// FromFile reads the image at path and encodes it as a data URL.
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return FromReader(f)
}

// FromReader reads an image from r and encodes it as a data URL.
func FromReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxFileBytes {
		return "", fmt.Errorf("image larger than %d bytes", MaxFileBytes)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w (%s)", ErrNotImage, mt.String())
	}
	if !imaging.Supported(mt.String()) {
		return "", fmt.Errorf("%w (%s is not supported)", ErrNotImage, mt.String())
	}
	return imaging.EncodeDataURL(mt.String(), data), nil
}
