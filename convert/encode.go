package convert

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	// Registers the WEBP decoder; encoding goes through gen2brain/webp.
	_ "golang.org/x/image/webp"
)

func encodeImage(w io.Writer, img image.Image, f Format, opts Options) error {
	switch f {
	case JPG, JPEG:
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: opts.Quality})
	case PNG:
		return png.Encode(w, img)
	case GIF:
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	case BMP:
		return bmp.Encode(w, img)
	case WEBP:
		return webp.Encode(w, img, webp.Options{
			Quality: opts.Quality,
			Method:  opts.Method,
		})
	case AVIF:
		return avif.Encode(w, img, avif.Options{
			Quality:           opts.Quality,
			QualityAlpha:      opts.Quality,
			Speed:             opts.Method,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// flatten composites img over opaque white. JPEG has no alpha channel and
// would otherwise render transparent pixels black.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
