package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/timelane/timelane/internal/timeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, name string, created time.Time) timeline.FileRecord {
	return timeline.FileRecord{
		ID:        id,
		Name:      name,
		Ext:       filepath.Ext(name),
		Mime:      "application/octet-stream",
		Kind:      timeline.KindOther,
		Size:      100,
		CreatedAt: created,
		AbsPath:   "/data/" + name,
		Hash:      "hash-" + id,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := openTestStore(t)

	rec := testRecord("f1", "report.pdf", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	rec.Kind = timeline.KindPDF
	rec.HasPreview = true
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.GetByID("f1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "report.pdf" || got.Kind != timeline.KindPDF || !got.HasPreview {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	byPath, err := s.GetByPath("/data/report.pdf")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if byPath.ID != "f1" {
		t.Errorf("GetByPath ID = %q, want f1", byPath.ID)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetByPath("/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByPath error = %v, want ErrNotFound", err)
	}
}

func TestUpsertSamePathKeepsID(t *testing.T) {
	s := openTestStore(t)

	orig := testRecord("f1", "notes.txt", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Upsert(orig); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Re-index of the same path generates a fresh candidate id; the
	// conflict on abs_path must keep the original row id.
	update := testRecord("f2", "notes.txt", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	update.Size = 999
	if err := s.Upsert(update); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	got, err := s.GetByPath("/data/notes.txt")
	if err != nil {
		t.Fatalf("GetByPath: %v", err)
	}
	if got.ID != "f1" {
		t.Errorf("ID changed on upsert: got %q, want f1", got.ID)
	}
	if got.Size != 999 {
		t.Errorf("Size = %d, want 999", got.Size)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	records := []timeline.FileRecord{
		testRecord("a", "alpha.txt", base),
		testRecord("b", "beta.txt", base.Add(time.Hour)),
		testRecord("c", "gamma.jpg", base.Add(2*time.Hour)),
		testRecord("d", "delta.jpg", base.Add(3*time.Hour)),
		testRecord("e", "alpha-two.txt", base.Add(4*time.Hour)),
	}
	for _, r := range records {
		if err := s.Upsert(r); err != nil {
			t.Fatalf("Upsert %s: %v", r.ID, err)
		}
	}

	t.Run("no filters newest first", func(t *testing.T) {
		res, err := s.List(timeline.Filters{Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.Total != 5 || len(res.Items) != 5 {
			t.Fatalf("Total = %d, len = %d, want 5/5", res.Total, len(res.Items))
		}
		if res.Items[0].ID != "e" || res.Items[4].ID != "a" {
			t.Errorf("ordering wrong: first %q last %q", res.Items[0].ID, res.Items[4].ID)
		}
	})

	t.Run("name query", func(t *testing.T) {
		res, err := s.List(timeline.Filters{Query: "alpha"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.Total != 2 {
			t.Errorf("Total = %d, want 2", res.Total)
		}
	})

	t.Run("extension filter normalizes dot and case", func(t *testing.T) {
		res, err := s.List(timeline.Filters{Ext: "JPG"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.Total != 2 {
			t.Errorf("Total = %d, want 2", res.Total)
		}
	})

	t.Run("date range", func(t *testing.T) {
		from := base.Add(time.Hour)
		to := base.Add(3 * time.Hour)
		res, err := s.List(timeline.Filters{DateFrom: &from, DateTo: &to})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.Total != 3 {
			t.Errorf("Total = %d, want 3", res.Total)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		res, err := s.List(timeline.Filters{Page: 2, PageSize: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.TotalPages != 3 || res.Page != 2 {
			t.Fatalf("TotalPages = %d Page = %d, want 3/2", res.TotalPages, res.Page)
		}
		if len(res.Items) != 2 {
			t.Fatalf("len = %d, want 2", len(res.Items))
		}
		if res.Items[0].ID != "c" || res.Items[1].ID != "b" {
			t.Errorf("page 2 = %q,%q, want c,b", res.Items[0].ID, res.Items[1].ID)
		}
	})

	t.Run("page beyond end clamps", func(t *testing.T) {
		res, err := s.List(timeline.Filters{Page: 99, PageSize: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if res.Page != 3 {
			t.Errorf("Page = %d, want 3", res.Page)
		}
		if len(res.Items) != 1 {
			t.Errorf("len = %d, want 1", len(res.Items))
		}
	})
}

func TestListQueryEscapesWildcards(t *testing.T) {
	s := openTestStore(t)

	if err := s.Upsert(testRecord("a", "100%.txt", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(testRecord("b", "100x.txt", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	res, err := s.List(timeline.Filters{Query: "100%"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 1 || res.Items[0].ID != "a" {
		t.Errorf("literal %% not escaped: total %d", res.Total)
	}
}

func TestGroupedByDate(t *testing.T) {
	s := openTestStore(t)

	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	for _, r := range []timeline.FileRecord{
		testRecord("a", "a.txt", day1),
		testRecord("b", "b.txt", day1.Add(2*time.Hour)),
		testRecord("c", "c.txt", day2),
	} {
		if err := s.Upsert(r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	groups, err := s.GroupedByDate(timeline.Filters{})
	if err != nil {
		t.Fatalf("GroupedByDate: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Date != "2024-01-03" || groups[1].Date != "2024-01-01" {
		t.Errorf("group order = %q,%q, want newest first", groups[0].Date, groups[1].Date)
	}
	if len(groups[1].Files) != 2 {
		t.Fatalf("day1 files = %d, want 2", len(groups[1].Files))
	}
	if groups[1].Files[0].ID != "a" || groups[1].Files[1].ID != "b" {
		t.Errorf("within-day order = %q,%q, want chronological", groups[1].Files[0].ID, groups[1].Files[1].ID)
	}
}

func TestDeleteAndPrune(t *testing.T) {
	s := openTestStore(t)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []timeline.FileRecord{
		testRecord("a", "a.txt", now),
		testRecord("b", "b.txt", now),
		testRecord("c", "c.txt", now),
	} {
		if err := s.Upsert(r); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if err := s.DeleteByPath("/data/a.txt"); err != nil {
		t.Fatalf("DeleteByPath: %v", err)
	}
	// Deleting an unknown path is a no-op.
	if err := s.DeleteByPath("/data/ghost.txt"); err != nil {
		t.Fatalf("DeleteByPath unknown: %v", err)
	}

	removed, err := s.PruneMissing(map[string]struct{}{"/data/b.txt": {}})
	if err != nil {
		t.Fatalf("PruneMissing: %v", err)
	}
	if len(removed) != 1 || removed[0] != "/data/c.txt" {
		t.Errorf("removed = %v, want [/data/c.txt]", removed)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s.Upsert(testRecord("a", "a.txt", time.Now().UTC())); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	n, err := s2.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}
