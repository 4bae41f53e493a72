package convert

import "fmt"

const (
	DefaultQuality = 85

	// Slowest, best compression. Not user-configurable.
	webpMethod = 6
	avifSpeed  = 6
)

// Options carries the encoder parameters for a single task.
// The zero value is the no-op options used by lossless formats.
type Options struct {
	Quality   int
	Method    int
	HasMethod bool
}

// Policy maps a target format to encoder options. A zero DefaultQuality
// falls back to the package DefaultQuality.
type Policy struct {
	DefaultQuality int
}

// NewPolicy returns a Policy whose DefaultQuality is applied when a task
// does not carry its own quality.
func NewPolicy(defaultQuality int) Policy {
	return Policy{DefaultQuality: defaultQuality}
}

// OptionsFor derives the encoder options for f. A quality of 0 means unset.
// Out of range qualities are rejected, never clamped.
func (p Policy) OptionsFor(f Format, quality int) (Options, error) {
	fallback := p.DefaultQuality
	if fallback == 0 {
		fallback = DefaultQuality
	}
	if err := ValidateQuality(fallback); err != nil {
		return Options{}, fmt.Errorf("default %w", err)
	}
	if quality == 0 {
		quality = fallback
	} else if err := ValidateQuality(quality); err != nil {
		return Options{}, err
	}

	switch f {
	case JPG, JPEG:
		return Options{Quality: quality}, nil
	case WEBP:
		return Options{Quality: quality, Method: webpMethod, HasMethod: true}, nil
	case AVIF:
		return Options{Quality: quality, Method: avifSpeed, HasMethod: true}, nil
	case PNG, GIF, BMP:
		return Options{}, nil
	}
	return Options{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// ValidateQuality reports ErrInvalidQuality for values outside 1-100.
func ValidateQuality(q int) error {
	if q < 1 || q > 100 {
		return fmt.Errorf("%w (got %d)", ErrInvalidQuality, q)
	}
	return nil
}
