package convert

import (
	"fmt"
	"strings"
)

// Format is a target image format name as accepted on the command line.
// JPG and JPEG encode identically and differ only in the output extension.
type Format string

const (
	JPG  Format = "JPG"
	JPEG Format = "JPEG"
	PNG  Format = "PNG"
	GIF  Format = "GIF"
	BMP  Format = "BMP"
	WEBP Format = "WEBP"
	AVIF Format = "AVIF"
)

var formats = []Format{JPG, JPEG, PNG, GIF, BMP, WEBP, AVIF}

// Formats returns every supported format in display order.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat matches name case-insensitively against the supported formats.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Extension returns the output file extension with a leading dot.
func (f Format) Extension() string {
	return "." + strings.ToLower(string(f))
}

// Codec returns the name image.Decode reports for files of this format.
func (f Format) Codec() string {
	switch f {
	case JPG, JPEG:
		return "jpeg"
	default:
		return strings.ToLower(string(f))
	}
}

func (f Format) String() string {
	return string(f)
}
