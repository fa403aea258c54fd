package tui

import (
	"fmt"
	"strings"

	"github.com/timelane/timelane/internal/timeline"
	"github.com/timelane/timelane/internal/util"
)

// explorer renders the day-grouped file list: one header row per
// calendar day, newest day first, files beneath in chronological order.
type explorer struct {
	styles Styles
	width  int
	height int
}

func newExplorer(styles Styles) explorer {
	return explorer{styles: styles}
}

func (e *explorer) setSize(width, height int) {
	e.width = width
	e.height = height
}

// explorerRow is one rendered line: either a day header or a file.
type explorerRow struct {
	header  string
	fileIdx int
}

// buildRows flattens the snapshot's buckets into display rows, mapping
// file rows back to their index in snap.Files. Files without a valid
// timestamp land in a trailing "undated" section.
func buildRows(snap timeline.Snapshot) []explorerRow {
	indexByID := make(map[string]int, len(snap.Files))
	for i, f := range snap.Files {
		indexByID[f.ID] = i
	}

	var rows []explorerRow
	keys := snap.Buckets.SortedKeys()
	for i := len(keys) - 1; i >= 0; i-- {
		rows = append(rows, explorerRow{header: keys[i], fileIdx: -1})
		for _, f := range snap.Buckets[keys[i]] {
			rows = append(rows, explorerRow{fileIdx: indexByID[f.ID]})
		}
	}

	var undated []explorerRow
	for i, f := range snap.Files {
		if !f.HasValidTime() {
			undated = append(undated, explorerRow{fileIdx: i})
		}
	}
	if len(undated) > 0 {
		rows = append(rows, explorerRow{header: "undated", fileIdx: -1})
		rows = append(rows, undated...)
	}
	return rows
}

// View renders the grouped list with the selected file visible.
func (e *explorer) View(snap timeline.Snapshot) string {
	st := e.styles
	rows := buildRows(snap)
	if len(rows) == 0 {
		return st.Help.Render("  no files match the current filters")
	}

	// Find the row holding the current selection so scrolling can
	// center on it.
	selectedRow := 0
	for i, row := range rows {
		if row.fileIdx == snap.CurrentIndex {
			selectedRow = i
			break
		}
	}

	height := e.height
	if height < 1 {
		height = 1
	}
	offset := listOffset(selectedRow, len(rows), height)

	var b strings.Builder
	for i := offset; i < len(rows) && i < offset+height; i++ {
		row := rows[i]
		if row.fileIdx < 0 {
			count := snap.BadgeCounts[row.header]
			header := fmt.Sprintf("── %s", row.header)
			if count > 0 {
				header += st.Badge.Render(fmt.Sprintf("  %d", count))
			}
			b.WriteString(st.ListHeader.Render(header))
		} else {
			f := snap.Files[row.fileIdx]
			ts := "     "
			if f.HasValidTime() {
				ts = f.CreatedAt.Format("15:04")
			}
			line := fmt.Sprintf("  %s  %-7s %9s  %s",
				ts, f.Kind, util.FormatBytes(f.Size), f.Name)
			line = util.Truncate(line, e.width-2)
			if row.fileIdx == snap.CurrentIndex {
				b.WriteString(st.ListSelected.Render("▸" + line))
			} else {
				b.WriteString(st.ListItem.Render(" " + line))
			}
		}
		if i < len(rows)-1 && i < offset+height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
