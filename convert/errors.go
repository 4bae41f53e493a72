package convert

import "errors"

var (
	// ErrInvalidQuality is returned when a quality value falls outside 1-100.
	ErrInvalidQuality = errors.New("quality must be in range 1-100")

	ErrUnsupportedFormat = errors.New("unsupported target format")

	// ErrPathNotFound is returned by Discover when the input path does not exist.
	ErrPathNotFound = errors.New("input path not found")

	// ErrNoMatchingFiles is returned by Discover for a directory without any
	// convertible image. Callers report it as an empty batch.
	ErrNoMatchingFiles = errors.New("no matching image files")

	// Per-file failures. These only ever appear inside an Outcome.
	ErrDecode = errors.New("decode failed")
	ErrEncode = errors.New("encode failed")
	ErrWrite  = errors.New("write failed")
)
