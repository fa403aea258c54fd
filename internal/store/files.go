package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timelane/timelane/internal/timeline"
)

// ErrNotFound is returned when a catalog row does not exist.
var ErrNotFound = errors.New("file not found")

// ListResult is one page of catalog rows plus paging metadata.
type ListResult struct {
	Items      []timeline.FileRecord `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

const fileColumns = `id, abs_path, name, ext, mime, kind, size, created_at, hash, has_preview, has_thumbnail`

// Upsert inserts a record, or updates the existing row for the same
// absolute path. The row id is stable across updates.
func (s *Store) Upsert(rec timeline.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO file_items (id, abs_path, name, ext, mime, kind, size, created_at, hash, has_preview, has_thumbnail, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(abs_path) DO UPDATE SET
			name = excluded.name,
			ext = excluded.ext,
			mime = excluded.mime,
			kind = excluded.kind,
			size = excluded.size,
			created_at = excluded.created_at,
			hash = excluded.hash,
			has_preview = excluded.has_preview,
			has_thumbnail = excluded.has_thumbnail`,
		rec.ID, rec.AbsPath, rec.Name, rec.Ext, rec.Mime, string(rec.Kind),
		rec.Size, rec.CreatedAt.UTC(), rec.Hash, rec.HasPreview, rec.HasThumbnail,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", rec.AbsPath, err)
	}
	return nil
}

// GetByID returns a single catalog row.
func (s *Store) GetByID(id string) (timeline.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+fileColumns+` FROM file_items WHERE id = ?`, id)
	rec, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.FileRecord{}, ErrNotFound
	}
	if err != nil {
		return timeline.FileRecord{}, fmt.Errorf("get file %s: %w", id, err)
	}
	return rec, nil
}

// GetByPath returns the row indexed under an absolute path.
func (s *Store) GetByPath(absPath string) (timeline.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+fileColumns+` FROM file_items WHERE abs_path = ?`, absPath)
	rec, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.FileRecord{}, ErrNotFound
	}
	if err != nil {
		return timeline.FileRecord{}, fmt.Errorf("get file by path %s: %w", absPath, err)
	}
	return rec, nil
}

// List returns one filtered, paginated page of the catalog ordered by
// created_at descending (newest first).
func (s *Store) List(f timeline.Filters) (ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM file_items`+where, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count files: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 100
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	query := `SELECT ` + fileColumns + ` FROM file_items` + where +
		` ORDER BY created_at DESC, name ASC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	// Capacity hint only; clamp so an oversized PageSize cannot force a
	// huge allocation before any rows are read.
	capHint := pageSize
	if total < capHint {
		capHint = total
	}
	items := make([]timeline.FileRecord, 0, capHint)
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan file row: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate file rows: %w", err)
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GroupedByDate returns all matching rows bucketed by UTC calendar day,
// newest day first, files within a day ordered chronologically.
func (s *Store) GroupedByDate(f timeline.Filters) ([]timeline.DayGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(f)
	rows, err := s.db.Query(`SELECT `+fileColumns+` FROM file_items`+where+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list files for grouping: %w", err)
	}
	defer rows.Close()

	var all []timeline.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file rows: %w", err)
	}

	buckets := timeline.GroupByDay(all)
	keys := buckets.SortedKeys()

	groups := make([]timeline.DayGroup, 0, len(keys))
	// Newest day first for display.
	for i := len(keys) - 1; i >= 0; i-- {
		groups = append(groups, timeline.DayGroup{
			Date:  keys[i],
			Files: buckets[keys[i]],
		})
	}
	return groups, nil
}

// DeleteByPath removes the row for an absolute path. Deleting a path
// that is not indexed is not an error.
func (s *Store) DeleteByPath(absPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM file_items WHERE abs_path = ?`, absPath); err != nil {
		return fmt.Errorf("delete file %s: %w", absPath, err)
	}
	return nil
}

// AllPaths returns every indexed absolute path.
func (s *Store) AllPaths() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT abs_path FROM file_items`)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// PruneMissing deletes every row whose path is absent from the keep set
// and returns the removed paths.
func (s *Store) PruneMissing(keep map[string]struct{}) ([]string, error) {
	paths, err := s.AllPaths()
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, p := range paths {
		if _, ok := keep[p]; ok {
			continue
		}
		if err := s.DeleteByPath(p); err != nil {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// Count returns the total number of indexed files.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM file_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

func buildWhere(f timeline.Filters) (string, []any) {
	var conds []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q)+"%")
	}
	if f.Ext != "" {
		ext := strings.ToLower(f.Ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		conds = append(conds, `ext = ?`)
		args = append(args, ext)
	}
	if f.DateFrom != nil {
		conds = append(conds, `created_at >= ?`)
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		conds = append(conds, `created_at <= ?`)
		args = append(args, f.DateTo.UTC())
	}
	if f.MinSize != nil {
		conds = append(conds, `size >= ?`)
		args = append(args, *f.MinSize)
	}
	if f.MaxSize != nil {
		conds = append(conds, `size <= ?`)
		args = append(args, *f.MaxSize)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (timeline.FileRecord, error) {
	var rec timeline.FileRecord
	var kind string
	var created sql.NullTime
	if err := row.Scan(
		&rec.ID, &rec.AbsPath, &rec.Name, &rec.Ext, &rec.Mime, &kind,
		&rec.Size, &created, &rec.Hash, &rec.HasPreview, &rec.HasThumbnail,
	); err != nil {
		return timeline.FileRecord{}, err
	}
	rec.Kind = timeline.Kind(kind)
	if created.Valid {
		rec.CreatedAt = created.Time.UTC()
	}
	return rec, nil
}
