// Package imaging converts between raster images and data URLs and shrinks
// oversized photos before they are stored.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxStoredBytes is the encoded size above which images are recompressed.
	MaxStoredBytes = 1024 * 1024
	// MaxDimension bounds both sides of a recompressed image.
	MaxDimension = 1280
	// StoreQuality is the JPEG quality used for recompression.
	StoreQuality = 70
	// CaptureQuality is the JPEG quality used for camera frames.
	CaptureQuality = 80
	// MaxPixels bounds the declared size of an image accepted for decoding.
	MaxPixels = 50_000_000
)

var (
	// ErrInvalidDataURL is returned for strings that are not base64 data URLs.
	ErrInvalidDataURL = errors.New("invalid image data URL")
	// ErrTooManyPixels is returned for images whose header declares more
	// than MaxPixels pixels.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// decodable lists the MIME types Decode understands.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Supported reports whether images of mimeType can be decoded and so
// recompressed.
func Supported(mimeType string) bool {
	return decodable[mimeType]
}

// Decode reads an image after checking that its declared dimensions stay
// within MaxPixels.
func Decode(r io.Reader) (image.Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeDataURL builds a data URL for data of the given MIME type.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mimeType, data, nil
}

// EncodeJPEG encodes img as a JPEG data URL at the given quality.
func EncodeJPEG(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// Fit returns w and h scaled down proportionally so that neither exceeds
// limit. Sizes already within bounds are returned unchanged.
func Fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Compress decodes the image in dataURL, scales it to fit MaxDimension and
// re-encodes it as a JPEG data URL at StoreQuality.
func Compress(dataURL string) (string, error) {
	_, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	src, err := Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	return EncodeJPEG(dst, StoreQuality)
}

// CompressIfLarge applies Compress only when dataURL exceeds MaxStoredBytes.
func CompressIfLarge(dataURL string) (string, error) {
	if len(dataURL) <= MaxStoredBytes {
		return dataURL, nil
	}
	return Compress(dataURL)
}
