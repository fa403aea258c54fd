package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	thumbMaxWidth  = 512
	thumbMaxHeight = 512
)

// Thumbnailer renders and caches JPEG thumbnails for image files, one
// per file id under a single directory.
type Thumbnailer struct {
	dir string
}

// NewThumbnailer returns a thumbnailer writing into dir.
func NewThumbnailer(dir string) *Thumbnailer {
	return &Thumbnailer{dir: dir}
}

// Generate renders a thumbnail for an image file if one does not exist
// yet. It returns true when a thumbnail is available after the call.
// Non-image files and SVGs are skipped without error.
func (t *Thumbnailer) Generate(fileID, srcPath, mimeType string) (bool, error) {
	if !strings.HasPrefix(mimeType, "image/") || mimeType == "image/svg+xml" {
		return false, nil
	}

	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return false, fmt.Errorf("create thumbs dir: %w", err)
	}

	out := t.Path(fileID)
	if _, err := os.Stat(out); err == nil {
		return true, nil
	}

	src, err := imaging.Open(srcPath)
	if err != nil {
		return false, fmt.Errorf("open image %s: %w", srcPath, err)
	}
	thumb := imaging.Fit(src, thumbMaxWidth, thumbMaxHeight, imaging.Lanczos)
	if err := imaging.Save(thumb, out, imaging.JPEGQuality(85)); err != nil {
		return false, fmt.Errorf("save thumbnail %s: %w", out, err)
	}
	return true, nil
}

// Path returns where a file's thumbnail lives, whether or not it exists.
func (t *Thumbnailer) Path(fileID string) string {
	return filepath.Join(t.dir, fileID+".jpg")
}

// Exists reports whether a thumbnail is on disk for the file id.
func (t *Thumbnailer) Exists(fileID string) bool {
	_, err := os.Stat(t.Path(fileID))
	return err == nil
}

// Delete removes a file's thumbnail. A missing thumbnail is not an
// error.
func (t *Thumbnailer) Delete(fileID string) error {
	err := os.Remove(t.Path(fileID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete thumbnail: %w", err)
	}
	return nil
}

// CleanupOrphans removes thumbnails whose file id is no longer in the
// keep set.
func (t *Thumbnailer) CleanupOrphans(keep map[string]struct{}) error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read thumbs dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".jpg")
		if _, ok := keep[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(t.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove orphan thumbnail %s: %w", entry.Name(), err)
		}
	}
	return nil
}
