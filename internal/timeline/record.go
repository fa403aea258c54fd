// Package timeline implements the temporal seekbar engine: it derives a
// bounded time axis from a snapshot of file records, generates resolution
// ticks along that axis, maps each record to a proportional position, groups
// same-day records for badge counts, and tracks the single selection index
// shared by the seekbar and its companion list.
package timeline

import (
	"strings"
	"time"
)

// FileRecord is one indexed file as supplied by the data-fetch collaborator.
// Records are immutable; the engine only derives views over collections of
// them.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Ext          string    `json:"ext"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	HasPreview   bool      `json:"has_preview"`
	HasThumbnail bool      `json:"has_thumbnail"`
	AbsPath      string    `json:"abs_path,omitempty"`
	Hash         string    `json:"hash,omitempty"`

	// Kind is classified once when the record enters the system (indexer or
	// API decode), not re-derived at render time.
	Kind Kind `json:"kind,omitempty"`
}

// HasValidTime reports whether the creation timestamp is usable for axis
// math. Timestamps before 1970 are sentinel defaults from the origin
// filesystem, not real creation times, and must not skew the visible range.
func (r FileRecord) HasValidTime() bool {
	return r.CreatedAt.Year() >= 1970
}

// DateKey returns the record's calendar day in UTC (YYYY-MM-DD).
func (r FileRecord) DateKey() string {
	return r.CreatedAt.UTC().Format("2006-01-02")
}

// Kind is a closed classification of a file's content type, computed once per
// record from its MIME type and extension.
type Kind string

const (
	KindImage    Kind = "image"
	KindPDF      Kind = "pdf"
	KindText     Kind = "text"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindArchive  Kind = "archive"
	KindOther    Kind = "other"
)

var extKinds = map[string]Kind{
	".md":   KindText,
	".txt":  KindText,
	".log":  KindText,
	".csv":  KindText,
	".json": KindText,
	".yaml": KindText,
	".yml":  KindText,
	".toml": KindText,
	".pdf":  KindPDF,
	".doc":  KindDocument,
	".docx": KindDocument,
	".odt":  KindDocument,
	".xls":  KindDocument,
	".xlsx": KindDocument,
	".ppt":  KindDocument,
	".pptx": KindDocument,
	".zip":  KindArchive,
	".tar":  KindArchive,
	".gz":   KindArchive,
	".bz2":  KindArchive,
	".xz":   KindArchive,
	".rar":  KindArchive,
	".7z":   KindArchive,
	".mp4":  KindVideo,
	".webm": KindVideo,
	".avi":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".flac": KindAudio,
	".ogg":  KindAudio,
	".m4a":  KindAudio,
}

// ClassifyKind maps a MIME type and extension to a Kind. MIME wins when it is
// decisive; the extension covers files the origin system stored without one.
func ClassifyKind(mime, ext string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case mime == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	case strings.HasPrefix(mime, "text/"):
		return KindText
	}
	if k, ok := extKinds[strings.ToLower(ext)]; ok {
		return k
	}
	switch mime {
	case "application/zip", "application/gzip", "application/x-tar":
		return KindArchive
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return KindDocument
	case "application/json", "application/xml":
		return KindText
	}
	return KindOther
}

// Filters is the filter configuration a Dataset was fetched under.
type Filters struct {
	Query    string     `json:"q,omitempty"`
	Ext      string     `json:"ext,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	MinSize  *int64     `json:"min_size,omitempty"`
	MaxSize  *int64     `json:"max_size,omitempty"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Dataset is an immutable snapshot of filtered file records returned by one
// fetch. A new Dataset fully replaces the previous one; there is no
// incremental patching. The engine memoizes derived state on the Dataset's
// identity, so callers must not mutate a Dataset after handing it over.
type Dataset struct {
	Records []FileRecord
	Filters Filters
	Total   int
}

// NewDataset builds a Dataset, classifying any record that arrived without a
// Kind.
func NewDataset(records []FileRecord, filters Filters, total int) *Dataset {
	for i := range records {
		if records[i].Kind == "" {
			records[i].Kind = ClassifyKind(records[i].Mime, records[i].Ext)
		}
	}
	return &Dataset{Records: records, Filters: filters, Total: total}
}
