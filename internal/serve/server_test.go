package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/timelane/timelane/internal/config"
	"github.com/timelane/timelane/internal/events"
	"github.com/timelane/timelane/internal/store"
	"github.com/timelane/timelane/internal/timeline"
)

type stubRescanner struct {
	calls atomic.Int32
}

func (r *stubRescanner) ScanAll(ctx context.Context) error {
	r.calls.Add(1)
	return nil
}

type testEnv struct {
	server *httptest.Server
	store  *store.Store
	bus    *events.Bus
	cfg    *config.Config
	rescan *stubRescanner
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	dataDir := t.TempDir()

	st, err := store.Open(filepath.Join(dataDir, "catalog.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.FilesRoot = root
	cfg.DataDir = dataDir
	cfg.EnableUpload = true
	cfg.MaxUploadMB = 1

	bus := events.NewBus()
	rescan := &stubRescanner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := New(&cfg, st, bus, rescan, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, bus: bus, cfg: &cfg, rescan: rescan, root: root}
}

// seedFile writes content under the files root and catalogs it.
func (e *testEnv) seedFile(t *testing.T, id, name, content string, created time.Time) timeline.FileRecord {
	t.Helper()

	path := filepath.Join(e.root, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	rec := timeline.FileRecord{
		ID:         id,
		Name:       name,
		Ext:        ext,
		Mime:       "text/plain",
		Kind:       timeline.KindText,
		Size:       int64(len(content)),
		CreatedAt:  created,
		AbsPath:    path,
		Hash:       "hash-" + id,
		HasPreview: true,
	}
	if err := e.store.Upsert(rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]any
	resp := getJSON(t, env.server.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("no request id header")
	}
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	env.seedFile(t, "a", "alpha.txt", "aaa", base)
	env.seedFile(t, "b", "beta.txt", "bbb", base.Add(time.Hour))

	var res store.ListResult
	resp := getJSON(t, env.server.URL+"/api/files", &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("total = %d items = %d", res.Total, len(res.Items))
	}
	if res.Items[0].ID != "b" {
		t.Errorf("first item = %q, want b (newest first)", res.Items[0].ID)
	}

	resp = getJSON(t, env.server.URL+"/api/files?q=alpha", &res)
	if resp.StatusCode != http.StatusOK || res.Total != 1 {
		t.Errorf("filtered total = %d, want 1", res.Total)
	}
}

func TestGetFile(t *testing.T) {
	env := newTestEnv(t)
	env.seedFile(t, "a", "alpha.txt", "aaa", time.Now().UTC())

	var body struct {
		File          timeline.FileRecord `json:"file"`
		SizeFormatted string              `json:"size_formatted"`
	}
	resp := getJSON(t, env.server.URL+"/api/files/a", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.File.ID != "a" || body.SizeFormatted == "" {
		t.Errorf("body = %+v", body)
	}

	resp = getJSON(t, env.server.URL+"/api/files/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", resp.StatusCode)
	}
}

func TestTimeline(t *testing.T) {
	env := newTestEnv(t)
	env.seedFile(t, "a", "a.txt", "x", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	env.seedFile(t, "b", "b.txt", "y", time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC))
	env.seedFile(t, "c", "c.txt", "z", time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))

	var body struct {
		Timeline     []timeline.DayGroup `json:"timeline"`
		Total        int                 `json:"total"`
		EnableUpload bool                `json:"enable_upload"`
	}
	resp := getJSON(t, env.server.URL+"/api/timeline", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Total != 3 || len(body.Timeline) != 2 {
		t.Fatalf("total = %d groups = %d", body.Total, len(body.Timeline))
	}
	if body.Timeline[0].Date != "2024-01-05" {
		t.Errorf("first group = %q, want newest day", body.Timeline[0].Date)
	}
	if !body.EnableUpload {
		t.Error("enable_upload = false")
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	rec := env.seedFile(t, "a", "alpha.txt", "file body", time.Now().UTC())

	t.Run("inline with etag", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/files/a/preview")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "file body" {
			t.Errorf("body = %q", body)
		}
		if got := resp.Header.Get("ETag"); got != `"`+rec.Hash+`"` {
			t.Errorf("ETag = %q", got)
		}
	})

	t.Run("not modified", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/files/a/preview", nil)
		req.Header.Set("If-None-Match", `"`+rec.Hash+`"`)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotModified {
			t.Errorf("status = %d, want 304", resp.StatusCode)
		}
	})

	t.Run("download disposition", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/files/a/preview?download=1")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
			t.Errorf("Content-Disposition = %q", cd)
		}
	})

	t.Run("path outside root denied", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "secret.txt")
		if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
			t.Fatal(err)
		}
		bad := timeline.FileRecord{
			ID: "evil", Name: "secret.txt", AbsPath: outside,
			Mime: "text/plain", CreatedAt: time.Now().UTC(),
		}
		if err := env.store.Upsert(bad); err != nil {
			t.Fatal(err)
		}
		resp := getJSON(t, env.server.URL+"/files/evil/preview", nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestThumbnailMissing(t *testing.T) {
	env := newTestEnv(t)
	env.seedFile(t, "a", "a.txt", "x", time.Now().UTC())

	resp := getJSON(t, env.server.URL+"/files/a/thumb", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func multipartUpload(t *testing.T, url string, filenames map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range filenames {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL+"/api/upload", map[string]string{"notes.txt": "hello"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Uploaded []string `json:"uploaded"`
		Count    int      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Uploaded) != 1 {
		t.Fatalf("body = %+v", body)
	}

	matches, err := filepath.Glob(filepath.Join(env.root, "uploads", "*", "*", "notes.txt"))
	if err != nil || len(matches) != 1 {
		t.Errorf("uploaded file not on disk: %v %v", matches, err)
	}

	// Background rescan fires after a successful upload.
	deadline := time.After(2 * time.Second)
	for env.rescan.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("rescan never triggered")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestUploadBatchLargerThanPerFileLimit(t *testing.T) {
	env := newTestEnv(t)

	// Two files under the 1MB per-file limit whose combined size is
	// over it; the batch must still go through whole.
	payload := strings.Repeat("x", 700*1024)
	resp := multipartUpload(t, env.server.URL+"/api/upload", map[string]string{
		"first.txt":  payload,
		"second.txt": payload,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Count  int      `json:"count"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2 (errors: %v)", body.Count, body.Errors)
	}
}

func TestUploadOversizedFileFailsAlone(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL+"/api/upload", map[string]string{
		"big.txt":   strings.Repeat("x", 1200*1024),
		"small.txt": "fits",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Uploaded []string `json:"uploaded"`
		Count    int      `json:"count"`
		Errors   []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
	if len(body.Errors) != 1 || !strings.Contains(body.Errors[0], "big.txt") {
		t.Errorf("errors = %v, want one entry for big.txt", body.Errors)
	}
}

func TestUploadRejectsExtension(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.AllowedExt = []string{".txt", ".pdf"}

	resp := multipartUpload(t, env.server.URL+"/api/upload", map[string]string{"evil.exe": "nope"})
	defer resp.Body.Close()

	var body struct {
		Count  int      `json:"count"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 || len(body.Errors) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestUploadDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.EnableUpload = false

	resp := multipartUpload(t, env.server.URL+"/api/upload", map[string]string{"a.txt": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	env.bus.Publish(events.Event{Type: events.FileAdded, FileID: "f1", Path: "/data/f1.txt"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != events.FileAdded || ev.FileID != "f1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseFilters(t *testing.T) {
	env := newTestEnv(t)
	_ = env

	req := httptest.NewRequest(http.MethodGet,
		"/api/files?q=report&ext=pdf&page=3&page_size=25&date_from=2024-01-01&date_to=2024-02-01&min_size=10&max_size=1000", nil)
	f := parseFilters(req.URL.Query())

	if f.Query != "report" || f.Ext != "pdf" || f.Page != 3 || f.PageSize != 25 {
		t.Errorf("filters = %+v", f)
	}
	if f.DateFrom == nil || !f.DateFrom.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateFrom = %v", f.DateFrom)
	}
	if f.DateTo == nil || f.DateTo.Before(time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("DateTo = %v, want end of day", f.DateTo)
	}
	if f.MinSize == nil || *f.MinSize != 10 || f.MaxSize == nil || *f.MaxSize != 1000 {
		t.Errorf("sizes = %v %v", f.MinSize, f.MaxSize)
	}

	// Out-of-range values fall back to defaults.
	req = httptest.NewRequest(http.MethodGet, "/api/files?page=-1&page_size=9999", nil)
	f = parseFilters(req.URL.Query())
	if f.Page != 1 || f.PageSize != defaultPageSize {
		t.Errorf("defaults not applied: %+v", f)
	}
}

func TestPathWithinRoot(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/data", "/data/a.txt", true},
		{"/data", "/data/sub/a.txt", true},
		{"/data", "/data", true},
		{"/data", "/etc/passwd", false},
		{"/data", "/data/../etc/passwd", false},
		{"/data", "/databases/a.txt", false},
	}
	for _, tt := range tests {
		if got := pathWithinRoot(tt.root, tt.path); got != tt.want {
			t.Errorf("pathWithinRoot(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}
