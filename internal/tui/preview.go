package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"

	"github.com/timelane/timelane/internal/timeline"
	"github.com/timelane/timelane/internal/util"
)

// preview displays the content of a text file, or metadata for binary
// kinds, inside a scrollable viewport.
type preview struct {
	styles   Styles
	viewport viewport.Model
	file     timeline.FileRecord
	active   bool
}

func newPreview(styles Styles) preview {
	return preview{
		styles:   styles,
		viewport: viewport.New(0, 0),
	}
}

func (p *preview) setSize(width, height int) {
	p.viewport.Width = width - 4
	p.viewport.Height = height - 3
}

// show fills the pane with fetched content.
func (p *preview) show(f timeline.FileRecord, body []byte, mime string) {
	p.file = f
	p.active = true

	var content string
	switch {
	case strings.HasPrefix(mime, "text/"):
		content = wordwrap.String(string(body), p.viewport.Width)
	case strings.HasPrefix(mime, "image/"):
		content = fmt.Sprintf("%s\n\n%s image, %s\nopen in a browser for the full view",
			f.Name, f.Kind, util.FormatBytes(f.Size))
	default:
		content = fmt.Sprintf("%s\n\nno inline preview for %s (%s)",
			f.Name, mime, util.FormatBytes(f.Size))
	}
	p.viewport.SetContent(content)
	p.viewport.GotoTop()
}

func (p *preview) hide() {
	p.active = false
}

func (p *preview) View() string {
	if !p.active {
		return ""
	}
	title := p.styles.Title.Render(util.Truncate(p.file.Name, p.viewport.Width))
	return p.styles.PreviewBox.Render(title + "\n" + p.viewport.View())
}
