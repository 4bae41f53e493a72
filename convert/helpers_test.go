package convert

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// gradient returns a small opaque test image.
func gradient() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	return img
}

// writeSample encodes img as f into dir/name and returns the path.
func writeSample(t *testing.T, dir, name string, f Format, img image.Image) string {
	t.Helper()

	opts, err := NewPolicy(DefaultQuality).OptionsFor(f, 0)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, encodeImage(file, img, f, opts))
	return path
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodedFormat(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, name, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return name
}
