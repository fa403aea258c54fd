// Package tui implements the interactive file browser: a temporal
// seekbar over the catalog plus a day-grouped explorer view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timelane/timelane/internal/timeline"
)

// searchDebounce delays filter fetches while the user is still typing.
const searchDebounce = 300 * time.Millisecond

// Backend is what the UI needs from the server: filtered file pages and
// preview content.
type Backend interface {
	timeline.Fetcher
	Preview(ctx context.Context, id string) ([]byte, string, error)
}

type viewMode int

const (
	viewSeekbar viewMode = iota
	viewExplorer
)

// Messages.

type datasetMsg timeline.LoadResult

type previewMsg struct {
	file timeline.FileRecord
	body []byte
	mime string
	err  error
}

// searchTickMsg fires after the debounce window; stale generations are
// ignored.
type searchTickMsg struct {
	gen int
}

// App is the top-level bubbletea model.
type App struct {
	backend Backend
	engine  *timeline.Engine
	loader  *timeline.Loader
	filters timeline.Filters

	keys   KeyMap
	styles Styles

	seekbar  seekbar
	explorer explorer
	preview  preview
	search   textinput.Model

	mode      viewMode
	searching bool
	searchGen int
	showHelp  bool

	width  int
	height int
}

// New builds the app model around a backend.
func New(backend Backend, themeName string, pageSize int) *App {
	styles := NewStyles(ThemeByName(themeName))

	search := textinput.New()
	search.Placeholder = "filename..."
	search.Prompt = "/ "
	search.CharLimit = 120

	if pageSize <= 0 {
		pageSize = 500
	}

	return &App{
		backend:  backend,
		engine:   timeline.NewEngine(),
		loader:   timeline.NewLoader(backend),
		filters:  timeline.Filters{Page: 1, PageSize: pageSize},
		keys:     DefaultKeyMap(),
		styles:   styles,
		seekbar:  newSeekbar(styles),
		explorer: newExplorer(styles),
		preview:  newPreview(styles),
		search:   search,
	}
}

// Init kicks off the first fetch.
func (a *App) Init() tea.Cmd {
	return a.fetchCmd()
}

func (a *App) fetchCmd() tea.Cmd {
	thunk := a.loader.Load(context.Background(), a.filters)
	return func() tea.Msg {
		return datasetMsg(thunk())
	}
}

func (a *App) previewCmd() tea.Cmd {
	file, ok := a.engine.Current()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		body, mime, err := a.backend.Preview(ctx, file.ID)
		return previewMsg{file: file, body: body, mime: mime, err: err}
	}
}

func (a *App) searchTickCmd() tea.Cmd {
	gen := a.searchGen
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{gen: gen}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := a.height - 2
		a.seekbar.setSize(a.width, contentHeight)
		a.explorer.setSize(a.width, contentHeight)
		a.preview.setSize(a.width, contentHeight)
		return a, nil

	case datasetMsg:
		a.loader.Apply(timeline.LoadResult(msg), a.engine)
		return a, nil

	case previewMsg:
		if msg.err != nil {
			a.preview.hide()
			return a, nil
		}
		a.preview.show(msg.file, msg.body, msg.mime)
		return a, nil

	case searchTickMsg:
		if msg.gen != a.searchGen {
			return a, nil
		}
		a.filters.Query = strings.TrimSpace(a.search.Value())
		return a, a.fetchCmd()

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// handleMouse drives the selection from the pointer: motion over the
// bar hovers the nearest marker for the tooltip, a left click selects
// it. Only the seekbar view is pointer-aware.
func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.searching || a.preview.active || a.mode != viewSeekbar {
		return a, nil
	}

	snap := a.engine.Snapshot()
	idx, ok := a.seekbar.fileAt(snap, msg.X, msg.Y)

	switch {
	case msg.Action == tea.MouseActionMotion:
		if ok {
			a.engine.SetHover(idx)
		} else {
			a.engine.ClearHover()
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if ok {
			a.engine.SelectAt(idx)
		}
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch msg.String() {
		case "enter", "esc":
			a.searching = false
			a.search.Blur()
			if msg.String() == "esc" {
				a.search.SetValue("")
			}
			a.searchGen++
			a.filters.Query = strings.TrimSpace(a.search.Value())
			return a, a.fetchCmd()
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		a.searchGen++
		return a, tea.Batch(cmd, a.searchTickCmd())
	}

	if a.preview.active {
		switch msg.String() {
		case "esc", "q":
			a.preview.hide()
			return a, nil
		}
		var cmd tea.Cmd
		a.preview.viewport, cmd = a.preview.viewport.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Prev):
		a.engine.Retreat()
		return a, nil
	case key.Matches(msg, a.keys.Next):
		a.engine.Advance()
		return a, nil
	case key.Matches(msg, a.keys.First):
		a.engine.JumpToFirst()
		return a, nil
	case key.Matches(msg, a.keys.Last):
		a.engine.JumpToLast()
		return a, nil
	case key.Matches(msg, a.keys.Second):
		a.engine.SetResolution(timeline.ResolutionSecond)
		return a, nil
	case key.Matches(msg, a.keys.Minute):
		a.engine.SetResolution(timeline.ResolutionMinute)
		return a, nil
	case key.Matches(msg, a.keys.Hour):
		a.engine.SetResolution(timeline.ResolutionHour)
		return a, nil
	case key.Matches(msg, a.keys.Day):
		a.engine.SetResolution(timeline.ResolutionDay)
		return a, nil
	case key.Matches(msg, a.keys.Month):
		a.engine.SetResolution(timeline.ResolutionMonth)
		return a, nil
	case key.Matches(msg, a.keys.SwitchView):
		if a.mode == viewSeekbar {
			a.mode = viewExplorer
		} else {
			a.mode = viewSeekbar
		}
		return a, nil
	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.search.Focus()
		return a, textinput.Blink
	case key.Matches(msg, a.keys.Preview):
		return a, a.previewCmd()
	case key.Matches(msg, a.keys.Refresh):
		return a, a.fetchCmd()
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return a, nil
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	snap := a.engine.Snapshot()

	var body string
	switch {
	case a.preview.active:
		body = a.preview.View()
	case a.mode == viewExplorer:
		body = a.explorer.View(snap)
	default:
		body = a.seekbar.View(snap)
	}

	var bottom string
	switch {
	case a.searching:
		bottom = a.search.View()
	case a.showHelp:
		bottom = a.helpView()
	default:
		bottom = a.statusView(snap)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, bottom)
}

func (a *App) statusView(snap timeline.Snapshot) string {
	st := a.styles
	mode := "seekbar"
	if a.mode == viewExplorer {
		mode = "explorer"
	}

	left := fmt.Sprintf(" %s | %d/%d", mode, snap.CurrentIndex+1, len(snap.Files))
	if snap.CurrentIndex < 0 {
		left = fmt.Sprintf(" %s | -/%d", mode, len(snap.Files))
	}
	if a.filters.Query != "" {
		left += fmt.Sprintf(" | filter: %q", a.filters.Query)
	}
	if snap.Err != nil {
		left += "  " + st.ErrorBadge.Render("fetch failed")
	}

	right := st.Help.Render("? help · q quit ")
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) helpView() string {
	st := a.styles
	lines := []string{
		"←/↑ previous · →/↓ next · home/end jump · tab switch view",
		fmt.Sprintf("resolution: s/m/H/d/M (%s)", resolutionHint()),
		"/ search · enter preview · r refresh · q quit",
	}
	return st.Help.Render(strings.Join(lines, "  |  "))
}

// Run starts the program in the alternate screen.
func Run(backend Backend, themeName string, pageSize int) error {
	p := tea.NewProgram(New(backend, themeName, pageSize),
		tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
