package errors

import "net/http"

// UploadFailure names the validator layer that rejected a file.
type UploadFailure string

const (
	UploadEmptyFile        UploadFailure = "EMPTY_FILE"
	UploadBadExtension     UploadFailure = "BAD_EXTENSION"
	UploadOversizeForType  UploadFailure = "OVERSIZE_FOR_TYPE"
	UploadUnknownFormat    UploadFailure = "UNKNOWN_FORMAT"
	UploadForbiddenMime    UploadFailure = "FORBIDDEN_MIME"
	UploadPolyglotMismatch UploadFailure = "POLYGLOT_MISMATCH"
	UploadBadDimensions    UploadFailure = "BAD_DIMENSIONS"
	UploadMalwareDetected  UploadFailure = "MALWARE_DETECTED"
)

var uploadMessages = map[UploadFailure]string{
	UploadEmptyFile:        "The uploaded file is empty",
	UploadBadExtension:     "File extension is not allowed",
	UploadOversizeForType:  "File is too large for its type",
	UploadUnknownFormat:    "File format could not be recognised",
	UploadForbiddenMime:    "File type is not allowed",
	UploadPolyglotMismatch: "File content does not match its extension",
	UploadBadDimensions:    "Image dimensions are out of range",
	UploadMalwareDetected:  "File was rejected by the malware scanner",
}

// UploadError is returned by the image validator. Filename is the client-supplied name.
type UploadError struct {
	Failure  UploadFailure
	Filename string
	Reason   string
}

// NewUploadError creates an UploadError
func NewUploadError(failure UploadFailure, filename, reason string) *UploadError {
	return &UploadError{Failure: failure, Filename: filename, Reason: reason}
}

func (e *UploadError) Error() string {
	return "file upload rejected (" + string(e.Failure) + "): " + e.Reason
}

// Is lets callers match on the failure kind alone.
func (e *UploadError) Is(target error) bool {
	t, ok := target.(*UploadError)
	if !ok {
		return false
	}

	return t.Failure == e.Failure
}

func (e *UploadError) HTTPCode() int {
	if e.Failure == UploadOversizeForType {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusUnprocessableEntity
}

func (e *UploadError) ErrorCode() string { return "FILE_UPLOAD_" + string(e.Failure) }

func (e *UploadError) Message() string { return uploadMessages[e.Failure] }

func (e *UploadError) Details() string {
	if e.Filename == "" {
		return e.Reason
	}

	return e.Filename + ": " + e.Reason
}
