package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/timelane/timelane/internal/store"
	"github.com/timelane/timelane/internal/timeline"
	"github.com/timelane/timelane/internal/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	// maxUploadBatch bounds how many limit-sized files one upload
	// request may carry.
	maxUploadBatch = 16
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r.URL.Query())
	res, err := s.store.List(filters)
	if err != nil {
		s.log.Error("list files failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error retrieving files")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.log.Error("get file failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error retrieving file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":           rec,
		"size_formatted": util.FormatBytes(rec.Size),
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters := parseFilters(r.URL.Query())
	groups, err := s.store.GroupedByDate(filters)
	if err != nil {
		s.log.Error("timeline query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error retrieving timeline")
		return
	}

	total, err := s.store.Count()
	if err != nil {
		s.log.Error("count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error counting files")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timeline":      groups,
		"filters":       filters,
		"total":         total,
		"enable_upload": s.cfg.EnableUpload,
		"allowed_ext":   s.cfg.AllowedExt,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"files_root":    s.cfg.FilesRoot,
		"enable_upload": s.cfg.EnableUpload,
		"allowed_ext":   s.cfg.AllowedExt,
		"page_size":     s.cfg.PageSize,
		"theme":         s.cfg.Theme,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.log.Error("get file failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error retrieving file")
		return
	}

	if !pathWithinRoot(s.cfg.FilesRoot, rec.AbsPath) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	if _, err := os.Stat(rec.AbsPath); os.IsNotExist(err) {
		writeError(w, http.StatusNotFound, "file missing on disk")
		return
	}

	w.Header().Set("Content-Type", rec.Mime)
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", rec.Name))
	} else {
		etag := fmt.Sprintf("%q", rec.Hash)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	http.ServeFile(w, r, rec.AbsPath)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetByID(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.log.Error("get file failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error retrieving file")
		return
	}

	if !rec.HasThumbnail || !s.thumbs.Exists(rec.ID) {
		writeError(w, http.StatusNotFound, "thumbnail not available")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, s.thumbs.Path(rec.ID))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.EnableUpload {
		writeError(w, http.StatusForbidden, "upload disabled")
		return
	}

	// The request cap admits a whole batch of limit-sized files; the
	// per-file limit is enforced in saveUpload so one oversized file
	// fails alone instead of sinking the request.
	maxBytes := s.cfg.MaxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*maxUploadBatch+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "error parsing form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	now := time.Now()
	uploadDir := filepath.Join(s.cfg.FilesRoot, "uploads", now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		s.log.Error("create upload dir failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unable to create upload directory")
		return
	}

	var uploaded []string
	var failures []string
	for _, fh := range files {
		name, err := s.saveUpload(fh, uploadDir)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		uploaded = append(uploaded, name)
	}

	if len(uploaded) > 0 && s.rescan != nil {
		// The watcher also picks new files up; the explicit rescan
		// makes uploads visible without waiting for it.
		go func() {
			if err := s.rescan.ScanAll(context.Background()); err != nil {
				s.log.Warn("post-upload rescan failed", "error", err)
			}
		}()
	}

	resp := map[string]any{
		"uploaded": uploaded,
		"count":    len(uploaded),
	}
	if len(failures) > 0 {
		resp["errors"] = failures
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	if fh.Size > s.cfg.MaxUploadMB*1024*1024 {
		return "", fmt.Errorf("file too large (max %dMB)", s.cfg.MaxUploadMB)
	}

	name := util.SanitizeFilename(filepath.Base(fh.Filename))
	ext := strings.ToLower(filepath.Ext(name))
	if !s.cfg.IsAllowedExtension(ext) {
		return "", fmt.Errorf("extension not allowed: %s", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(dir, name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return filepath.Base(dest), nil
}

func parseFilters(q url.Values) timeline.Filters {
	f := timeline.Filters{
		Query:    q.Get("q"),
		Ext:      q.Get("ext"),
		Page:     1,
		PageSize: defaultPageSize,
	}

	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			f.Page = page
		}
	}
	if v := q.Get("page_size"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 && size <= maxPageSize {
			f.PageSize = size
		}
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := parseDate(v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := parseDate(v); err == nil {
			// A bare date upper bound covers the whole day.
			if len(v) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			f.DateTo = &t
		}
	}
	if v := q.Get("min_size"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MinSize = &size
		}
	}
	if v := q.Get("max_size"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaxSize = &size
		}
	}
	return f
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
