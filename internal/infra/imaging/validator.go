// Package imaging validates uploaded item images layer by layer.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"path"
	"strings"

	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/service"
	"tradepost/internal/util"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/webp"
)

const (
	MinDimension = 50
	MaxDimension = 4096

	MaxAbsoluteBytes = 10 << 20
)

// Canonical type names.
const (
	TypeJPEG = "jpeg"
	TypePNG  = "png"
	TypeGIF  = "gif"
	TypeWebP = "webp"
)

var extensionTypes = map[string]string{
	"jpg":  TypeJPEG,
	"jpeg": TypeJPEG,
	"png":  TypePNG,
	"gif":  TypeGIF,
	"webp": TypeWebP,
}

var sizeCaps = map[string]int64{
	TypeJPEG: 5 << 20,
	TypeWebP: 5 << 20,
	TypePNG:  8 << 20,
	TypeGIF:  3 << 20,
}

var mimeTypes = map[string]string{
	"image/jpeg": TypeJPEG,
	"image/png":  TypePNG,
	"image/gif":  TypeGIF,
	"image/webp": TypeWebP,
}

type decodeFuncs struct {
	config func(r *bytes.Reader) (image.Config, error)
	full   func(r *bytes.Reader) error
}

var decoders = map[string]decodeFuncs{
	TypeJPEG: {
		config: func(r *bytes.Reader) (image.Config, error) { return jpeg.DecodeConfig(r) },
		full:   func(r *bytes.Reader) error { _, err := jpeg.Decode(r); return err },
	},
	TypePNG: {
		config: func(r *bytes.Reader) (image.Config, error) { return png.DecodeConfig(r) },
		full:   func(r *bytes.Reader) error { _, err := png.Decode(r); return err },
	},
	TypeGIF: {
		config: func(r *bytes.Reader) (image.Config, error) { return gif.DecodeConfig(r) },
		full:   func(r *bytes.Reader) error { _, err := gif.DecodeAll(r); return err },
	},
	TypeWebP: {
		config: func(r *bytes.Reader) (image.Config, error) { return webp.DecodeConfig(r) },
		full:   func(r *bytes.Reader) error { _, err := webp.Decode(r); return err },
	},
}

type validator struct {
	scanner service.MalwareScanner
	logger  *slog.Logger
}

// NewValidator builds the image validator. A nil scanner disables the malware layer.
func NewValidator(scanner service.MalwareScanner, logger *slog.Logger) service.ImageValidator {
	return &validator{scanner: scanner, logger: logger}
}

// Validate runs every layer in order and stops at the first failure.
func (v *validator) Validate(ctx context.Context, c *service.ImageCandidate) (*service.ValidatedImage, error) {
	extType, err := extensionType(c.Filename)
	if err != nil {
		return nil, err
	}

	limit := sizeCap(extType)
	if c.DeclaredLength > limit {
		return nil, oversize(c.Filename, extType, c.DeclaredLength, limit)
	}

	if len(c.Data) == 0 {
		return nil, domainerrors.NewUploadError(domainerrors.UploadEmptyFile, c.Filename, "no bytes received")
	}

	size := int64(len(c.Data))
	if size > limit {
		return nil, oversize(c.Filename, extType, size, limit)
	}

	detected := mimetype.Detect(c.Data)
	if detected.Is("application/octet-stream") {
		return nil, domainerrors.NewUploadError(domainerrors.UploadUnknownFormat, c.Filename, "content does not match any known format")
	}

	mimeType := strings.SplitN(detected.String(), ";", 2)[0]
	detectedType, ok := mimeTypes[mimeType]
	if !ok {
		return nil, domainerrors.NewUploadError(domainerrors.UploadForbiddenMime, c.Filename,
			fmt.Sprintf("content type %s is not allowed", mimeType))
	}

	if detectedType != extType {
		return nil, domainerrors.NewUploadError(domainerrors.UploadPolyglotMismatch, c.Filename,
			fmt.Sprintf("extension says %s but content is %s", extType, detectedType))
	}

	width, height, err := checkImage(c.Filename, detectedType, c.Data)
	if err != nil {
		return nil, err
	}

	if err := v.scan(ctx, c); err != nil {
		return nil, err
	}

	return &service.ValidatedImage{
		DetectedType: detectedType,
		MIMEType:     mimeType,
		ByteSize:     size,
		Width:        width,
		Height:       height,
	}, nil
}

// extensionType resolves the single allowed extension of a file name.
func extensionType(filename string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	parts := strings.Split(base, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", domainerrors.NewUploadError(domainerrors.UploadBadExtension, filename,
			"file name must have exactly one extension")
	}

	t, ok := extensionTypes[strings.ToLower(parts[1])]
	if !ok {
		return "", domainerrors.NewUploadError(domainerrors.UploadBadExtension, filename,
			fmt.Sprintf("extension %q is not allowed", parts[1]))
	}

	return t, nil
}

func sizeCap(t string) int64 {
	return min(sizeCaps[t], MaxAbsoluteBytes)
}

func oversize(filename, t string, size, limit int64) error {
	return domainerrors.NewUploadError(domainerrors.UploadOversizeForType, filename,
		fmt.Sprintf("%s files are limited to %s, got %s", t, util.FormatBytes(limit), util.FormatBytes(size)))
}

// checkImage reads the header first so oversized canvases are rejected before a full decode.
func checkImage(filename, t string, data []byte) (int, int, error) {
	dec := decoders[t]

	cfg, err := dec.config(bytes.NewReader(data))
	if err != nil {
		return 0, 0, domainerrors.NewUploadError(domainerrors.UploadUnknownFormat, filename, "image header is corrupt")
	}

	if cfg.Width < MinDimension || cfg.Width > MaxDimension || cfg.Height < MinDimension || cfg.Height > MaxDimension {
		return 0, 0, domainerrors.NewUploadError(domainerrors.UploadBadDimensions, filename,
			fmt.Sprintf("%dx%d is outside %d..%d", cfg.Width, cfg.Height, MinDimension, MaxDimension))
	}

	if err := dec.full(bytes.NewReader(data)); err != nil {
		return 0, 0, domainerrors.NewUploadError(domainerrors.UploadUnknownFormat, filename, "image data is corrupt")
	}

	return cfg.Width, cfg.Height, nil
}

// scan rejects infected files. An unreachable scanner is logged and skipped.
func (v *validator) scan(ctx context.Context, c *service.ImageCandidate) error {
	if v.scanner == nil {
		return nil
	}

	result, err := v.scanner.Scan(ctx, c.Data)
	if err != nil {
		if v.logger != nil {
			v.logger.WarnContext(ctx, "Malware scanner unavailable, skipping scan",
				slog.String("filename", c.Filename),
				slog.Any("error", err),
			)
		}

		return nil
	}

	if result != nil && result.Infected {
		return domainerrors.NewUploadError(domainerrors.UploadMalwareDetected, c.Filename,
			"signature "+result.Signature)
	}

	return nil
}
