package index

import (
	"crypto/sha256"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// mimeFallbacks covers extensions the platform mime database commonly
// misses.
var mimeFallbacks = map[string]string{
	".md":   "text/markdown",
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".zip":  "application/zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectMime returns the MIME type for a path based on its extension.
func DetectMime(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	if mt, ok := mimeFallbacks[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// HashFile computes the SHA-256 hex digest of the file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// IsPreviewable reports whether the server can render an inline preview
// for the MIME type.
func IsPreviewable(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") ||
		strings.HasPrefix(mimeType, "text/") ||
		mimeType == "application/pdf"
}

// IsHidden reports whether a file or directory name is dot-prefixed.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"tmp":          {},
	"temp":         {},
	"cache":        {},
	"thumbs":       {},
}

// SkipDir reports whether a directory should be excluded from scans.
func SkipDir(name string) bool {
	if IsHidden(name) {
		return true
	}
	_, ok := skipDirs[name]
	return ok
}
