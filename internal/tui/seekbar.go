package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/timelane/timelane/internal/timeline"
	"github.com/timelane/timelane/internal/util"
)

// seekbar renders the horizontal time axis with file markers, tick
// labels, date badges, and a companion file list scrolled around the
// selection.
type seekbar struct {
	styles Styles
	width  int
	height int
}

func newSeekbar(styles Styles) seekbar {
	return seekbar{styles: styles}
}

func (s *seekbar) setSize(width, height int) {
	s.width = width
	s.height = height
}

// barWidth is the usable column count of the axis.
func (s *seekbar) barWidth() int {
	w := s.width - 4
	if w < 10 {
		w = 10
	}
	return w
}

// column maps a percentage position to an axis column.
func column(pos float64, width int) int {
	col := int(pos / 100 * float64(width-1))
	if col < 0 {
		col = 0
	}
	if col >= width {
		col = width - 1
	}
	return col
}

// Pane rows that accept pointer input, counted from the summary line.
// The band spans the marker row through the progress bar; the gutter
// matches the two-column indent every bar row shares.
const (
	seekbarMarkerRow   = 1
	seekbarProgressRow = 4
	seekbarGutter      = 2
)

// fileAt maps a pane coordinate to the index of the nearest plotted
// file. Coordinates outside the bar band, or snapshots with no plotted
// files, report no hit. Ties go to the earlier chronological file.
func (s *seekbar) fileAt(snap timeline.Snapshot, x, y int) (int, bool) {
	if y < seekbarMarkerRow || y > seekbarProgressRow {
		return 0, false
	}
	width := s.barWidth()
	col := x - seekbarGutter
	if col < 0 || col >= width {
		return 0, false
	}

	best, bestDist := -1, width+1
	for i, f := range snap.Files {
		pos, ok := snap.Positions[f.ID]
		if !ok {
			continue
		}
		d := column(pos, width) - col
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// markerCells groups plottable files by axis column. Files without a
// position entry are unplottable and stay off the bar.
func markerCells(snap timeline.Snapshot, width int) map[int][]timeline.FileRecord {
	cells := make(map[int][]timeline.FileRecord)
	for _, f := range snap.Files {
		pos, ok := snap.Positions[f.ID]
		if !ok {
			continue
		}
		col := column(pos, width)
		cells[col] = append(cells[col], f)
	}
	return cells
}

// View renders the whole seekbar pane for a snapshot.
func (s *seekbar) View(snap timeline.Snapshot) string {
	var b strings.Builder
	width := s.barWidth()

	b.WriteString(s.renderSummary(snap))
	b.WriteString("\n")
	b.WriteString(s.renderMarkerRow(snap, width))
	b.WriteString("\n")
	b.WriteString(s.renderAxis(snap, width))
	b.WriteString("\n")
	b.WriteString(s.renderTickLabels(snap, width))
	b.WriteString("\n")
	b.WriteString(s.renderProgress(snap, width))
	b.WriteString("\n")

	if tip := s.renderTooltip(snap); tip != "" {
		b.WriteString(tip)
		b.WriteString("\n")
	}

	listHeight := s.height - lipgloss.Height(b.String()) - 1
	if listHeight > 0 {
		b.WriteString(s.renderFileList(snap, listHeight))
	}
	return b.String()
}

func (s *seekbar) renderSummary(snap timeline.Snapshot) string {
	st := s.styles
	parts := []string{
		fmt.Sprintf("%d files", len(snap.Files)),
		fmt.Sprintf("%s – %s",
			snap.Bounds.Start.Format("2006-01-02 15:04"),
			snap.Bounds.End.Format("2006-01-02 15:04")),
		fmt.Sprintf("ticks: %s", snap.Resolution),
	}
	if snap.TicksCapped {
		parts = append(parts, st.ErrorBadge.Render("tick cap"))
	}
	if snap.Err != nil {
		parts = append(parts, st.ErrorBadge.Render("stale"))
	}
	line := strings.Join(parts, "  ")
	return st.StatusBar.Render(util.Truncate(line, s.width-2))
}

// renderMarkerRow draws one character column per axis cell: a marker
// glyph for a single file, a cluster glyph for several.
func (s *seekbar) renderMarkerRow(snap timeline.Snapshot, width int) string {
	st := s.styles
	cells := markerCells(snap, width)

	selectedCol := -1
	if snap.CurrentIndex >= 0 && snap.CurrentIndex < len(snap.Files) {
		if pos, ok := snap.Positions[snap.Files[snap.CurrentIndex].ID]; ok {
			selectedCol = column(pos, width)
		}
	}
	hoverCol := -1
	if snap.HoverIndex >= 0 && snap.HoverIndex < len(snap.Files) {
		if pos, ok := snap.Positions[snap.Files[snap.HoverIndex].ID]; ok {
			hoverCol = column(pos, width)
		}
	}

	var row strings.Builder
	row.WriteString("  ")
	for col := 0; col < width; col++ {
		files := cells[col]
		switch {
		case len(files) == 0:
			row.WriteString(" ")
		case col == selectedCol || col == hoverCol:
			row.WriteString(st.MarkerHot.Render(glyphFor(files)))
		case len(files) == 1:
			row.WriteString(st.Marker.Render("●"))
		default:
			row.WriteString(st.Cluster.Render(glyphFor(files)))
		}
	}
	return row.String()
}

func glyphFor(files []timeline.FileRecord) string {
	switch {
	case len(files) > 9:
		return "◉"
	case len(files) > 1:
		return "●"
	default:
		return "●"
	}
}

// renderAxis draws the bar with tick columns marked.
func (s *seekbar) renderAxis(snap timeline.Snapshot, width int) string {
	st := s.styles
	cols := make([]bool, width)
	for _, pos := range snap.TickPos {
		cols[column(pos, width)] = true
	}

	var axis strings.Builder
	axis.WriteString(st.Axis.Render("["))
	axis.WriteString(" ")
	for col := 0; col < width; col++ {
		if cols[col] {
			axis.WriteString(st.Tick.Render("┼"))
		} else {
			axis.WriteString(st.Axis.Render("─"))
		}
	}
	axis.WriteString(st.Axis.Render("]"))
	return axis.String()
}

// renderTickLabels places sparse time labels under the axis, skipping
// any label that would collide with the previous one.
func (s *seekbar) renderTickLabels(snap timeline.Snapshot, width int) string {
	st := s.styles
	row := make([]rune, width+2)
	for i := range row {
		row[i] = ' '
	}

	layout := tickLabelLayout(snap.Resolution)
	lastEnd := -1
	for i, tick := range snap.Ticks {
		if i >= len(snap.TickPos) {
			break
		}
		label := tick.Format(layout)
		col := column(snap.TickPos[i], width) + 2
		if col <= lastEnd {
			continue
		}
		if col+runewidth.StringWidth(label) > len(row) {
			break
		}
		copy(row[col:], []rune(label))
		lastEnd = col + runewidth.StringWidth(label) + 1
	}
	return st.Tick.Render(string(row))
}

func tickLabelLayout(r timeline.Resolution) string {
	switch r {
	case timeline.ResolutionSecond:
		return "15:04:05"
	case timeline.ResolutionMinute, timeline.ResolutionHour:
		return "15:04"
	case timeline.ResolutionMonth:
		return "2006-01"
	default:
		return "01-02"
	}
}

// renderProgress draws a fill bar up to the selection's position.
func (s *seekbar) renderProgress(snap timeline.Snapshot, width int) string {
	st := s.styles
	fill := 0
	if snap.CurrentIndex >= 0 && snap.CurrentIndex < len(snap.Files) {
		if pos, ok := snap.Positions[snap.Files[snap.CurrentIndex].ID]; ok {
			fill = column(pos, width) + 1
		}
	}

	var bar strings.Builder
	bar.WriteString("  ")
	bar.WriteString(st.ProgressDone.Render(strings.Repeat("━", fill)))
	bar.WriteString(st.Progress.Render(strings.Repeat("─", width-fill)))
	return bar.String()
}

// renderTooltip shows details for the hovered file, or the selected one
// when nothing is hovered.
func (s *seekbar) renderTooltip(snap timeline.Snapshot) string {
	idx := snap.HoverIndex
	if idx < 0 {
		idx = snap.CurrentIndex
	}
	if idx < 0 || idx >= len(snap.Files) {
		return ""
	}
	f := snap.Files[idx]

	when := "no timestamp"
	if f.HasValidTime() {
		when = f.CreatedAt.Format("2006-01-02 15:04:05 MST")
	}
	badge := ""
	if count := snap.BadgeCounts[f.DateKey()]; count > 1 {
		badge = fmt.Sprintf("  (%d files this day)", count)
	}
	body := fmt.Sprintf("%s  %s  %s%s", f.Name, util.FormatBytes(f.Size), when, badge)
	return s.styles.Tooltip.Render(util.Truncate(body, s.width-6))
}

// listOffset centers the selection inside a window of the given height,
// clamping at both ends of the list.
func listOffset(selected, total, height int) int {
	if total <= height || height <= 0 {
		return 0
	}
	offset := selected - height/2
	if offset < 0 {
		offset = 0
	}
	if offset > total-height {
		offset = total - height
	}
	return offset
}

func (s *seekbar) renderFileList(snap timeline.Snapshot, height int) string {
	st := s.styles
	if len(snap.Files) == 0 {
		return st.Help.Render("  no files match the current filters")
	}

	offset := listOffset(snap.CurrentIndex, len(snap.Files), height)
	var b strings.Builder
	for i := offset; i < len(snap.Files) && i < offset+height; i++ {
		f := snap.Files[i]
		ts := "          "
		if f.HasValidTime() {
			ts = f.CreatedAt.Format("2006-01-02")
		}
		line := fmt.Sprintf(" %s  %-7s %9s  %s",
			ts, f.Kind, util.FormatBytes(f.Size), f.Name)
		line = util.Truncate(line, s.width-2)
		if i == snap.CurrentIndex {
			b.WriteString(st.ListSelected.Render("▸" + line))
		} else {
			b.WriteString(st.ListItem.Render(" " + line))
		}
		if i < len(snap.Files)-1 && i < offset+height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// resolutionHint names the keys cycling tick resolutions, for the help
// bar.
func resolutionHint() string {
	names := make([]string, 0, len(timeline.Resolutions))
	for _, r := range timeline.Resolutions {
		names = append(names, string(r))
	}
	return strings.Join(names, "/")
}
