package service

import "context"

// ImageCandidate is an uploaded file before validation.
type ImageCandidate struct {
	Filename       string
	ContentType    string // Claimed by the client.
	DeclaredLength int64  // Content length announced by the client, 0 when unknown.
	Data           []byte
}

// ValidatedImage is the canonical description of an accepted image.
type ValidatedImage struct {
	DetectedType string // Canonical extension: jpeg, png, gif or webp.
	MIMEType     string
	ByteSize     int64
	Width        int
	Height       int
}

// ImageValidator checks an upload before anything is persisted.
// Failures are *domainerrors.UploadError values naming the rejecting layer.
type ImageValidator interface {
	Validate(ctx context.Context, candidate *ImageCandidate) (*ValidatedImage, error)
}
