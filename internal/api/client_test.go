package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/timelane/timelane/internal/timeline"
)

func TestFetchFiles(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"items": []timeline.FileRecord{
				{ID: "a", Name: "a.jpg", Mime: "image/jpeg", Ext: ".jpg",
					CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
			"total":       1,
			"page":        2,
			"page_size":   25,
			"total_pages": 1,
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	ds, err := c.FetchFiles(context.Background(), timeline.Filters{
		Query: "cat", Ext: "jpg", Page: 2, PageSize: 25,
	})
	if err != nil {
		t.Fatalf("FetchFiles: %v", err)
	}

	if ds.Total != 1 || len(ds.Records) != 1 {
		t.Fatalf("dataset = %+v", ds)
	}
	// Kind is derived client-side when the payload omits it.
	if ds.Records[0].Kind != timeline.KindImage {
		t.Errorf("Kind = %q, want image", ds.Records[0].Kind)
	}
	params, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{
		"q": "cat", "ext": "jpg", "page": "2", "page_size": "25",
	} {
		if got := params.Get(key); got != want {
			t.Errorf("query param %s = %q, want %q", key, got, want)
		}
	}
}

func TestFetchFilesServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "catalog exploded"})
	}))
	defer ts.Close()

	_, err := New(ts.URL).FetchFiles(context.Background(), timeline.Filters{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "catalog exploded") {
		t.Errorf("error = %q, want server message", err)
	}
}

func TestPreview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/abc/preview" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# hello"))
	}))
	defer ts.Close()

	body, mime, err := New(ts.URL).Preview(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if string(body) != "# hello" || mime != "text/markdown" {
		t.Errorf("body = %q mime = %q", body, mime)
	}
}

func TestPreviewNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, _, err := New(ts.URL).Preview(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigAndHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/config":
			json.NewEncoder(w).Encode(map[string]any{
				"files_root":    "/data",
				"enable_upload": true,
				"page_size":     100,
				"theme":         "dark",
			})
		case "/health":
			json.NewEncoder(w).Encode(map[string]any{"status": "ok", "files": 42})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := New(ts.URL)

	cfg, err := c.Config(context.Background())
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.FilesRoot != "/data" || !cfg.EnableUpload || cfg.Theme != "dark" {
		t.Errorf("config = %+v", cfg)
	}

	n, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if n != 42 {
		t.Errorf("files = %d, want 42", n)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer ts.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := New(ts.URL).FetchFiles(ctx, timeline.Filters{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
