package convert

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Codec converts a single task. Implementations report every failure
// through the returned Outcome.
type Codec interface {
	Convert(task Task, opts Options) Outcome
}

// ImageCodec decodes with the registered image formats and re-encodes to the
// task's target format. It is safe for concurrent use.
type ImageCodec struct {
	mu    sync.Mutex
	dirs  map[string]error
	mkdir func(string, os.FileMode) error
}

func NewImageCodec() *ImageCodec {
	return &ImageCodec{}
}

func (c *ImageCodec) Convert(task Task, opts Options) Outcome {
	out := task.OutputPath()
	result := Outcome{Source: task.Source}

	img, err := decodeFile(task.Source)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrDecode, err)
		return result
	}

	if err := c.ensureDir(filepath.Dir(out)); err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrWrite, err)
		return result
	}

	if err := writeImage(out, img, task.Format, opts); err != nil {
		result.Err = err
		return result
	}

	result.Output = out
	return result
}

// ensureDir creates dir at most once per codec. Concurrent callers wait for
// the first attempt and share its result.
func (c *ImageCodec) ensureDir(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirs == nil {
		c.dirs = make(map[string]error)
	}
	if err, done := c.dirs[dir]; done {
		return err
	}

	mkdir := c.mkdir
	if mkdir == nil {
		mkdir = os.MkdirAll
	}
	err := mkdir(dir, 0o755)
	c.dirs[dir] = err
	return err
}

// decodeFile reads the whole image and closes the source before returning,
// so the output may safely replace it.
func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// writeImage encodes into a temp file next to path and renames it into place.
// Nothing is left behind on failure.
func writeImage(path string, img image.Image, f Format, opts Options) (err error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = encodeImage(w, img, f, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
