// Package browse is an interactive terminal browser for waypoints: page
// through the registry, search it and open a waypoint's details.
package browse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/location-marker/pkg/config"
	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/present"
	"github.com/1F47E/location-marker/pkg/search"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 1)
)

// Source is what the browser reads waypoints from
type Source interface {
	Page(keyword string, number, size int) search.Result
}

// ReloadMsg asks the browser to query its source again
type ReloadMsg struct{}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Open   key.Binding
	Back   key.Binding
	Search key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
	Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the bubbletea model of the browser
type Model struct {
	src Source
	cfg config.Config

	input     textinput.Model
	searching bool
	detail    bool

	keyword string
	page    int
	cursor  int
	result  search.Result

	width  int
	height int
}

// New creates a browser showing the first page of src
func New(src Source, cfg config.Config) Model {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "keyword"
	in.CharLimit = 64

	m := Model{
		src:    src,
		cfg:    cfg,
		input:  in,
		page:   1,
		width:  80,
		height: 24,
	}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.result = m.src.Page(m.keyword, m.page, m.cfg.ItemPerPage)
	// the source may have shrunk under us: stay on the last page that has items
	if len(m.result.Items) == 0 && m.page > 1 {
		size := m.cfg.ItemPerPage
		if m.result.Page != nil {
			size = m.result.Page.Size
		}
		if size < 1 {
			size = search.DefaultPageSize
		}
		m.page = max((m.result.Total+size-1)/size, 1)
		m.result = m.src.Page(m.keyword, m.page, m.cfg.ItemPerPage)
	}
	if m.cursor >= len(m.result.Items) {
		m.cursor = max(len(m.result.Items)-1, 0)
	}
	if len(m.result.Items) == 0 {
		m.detail = false
	}
}

// Selected returns the waypoint under the cursor
func (m Model) Selected() (models.Location, bool) {
	if m.cursor < 0 || m.cursor >= len(m.result.Items) {
		return models.Location{}, false
	}
	return m.result.Items[m.cursor], true
}

// Keyword is the active search keyword
func (m Model) Keyword() string { return m.keyword }

// PageNumber is the page on screen
func (m Model) PageNumber() int { return m.page }

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case ReloadMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.keyword = m.input.Value()
		m.searching = false
		m.input.Blur()
		m.page, m.cursor = 1, 0
		m.refresh()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		m.input.SetValue(m.keyword)
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.result.Page

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Back):
		if m.detail {
			m.detail = false
		} else if m.keyword != "" {
			m.keyword = ""
			m.input.SetValue("")
			m.page, m.cursor = 1, 0
			m.refresh()
		}

	case key.Matches(msg, keys.Search):
		m.searching = true
		m.detail = false
		return m, m.input.Focus()

	case key.Matches(msg, keys.Reload):
		m.refresh()

	case m.detail:
		// the detail view only reacts to the keys above

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.result.Items)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Prev):
		if page != nil && page.HasPrev {
			m.page--
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, keys.Next):
		if page != nil && page.HasNext {
			m.page++
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, keys.Open):
		if _, ok := m.Selected(); ok {
			m.detail = true
		}
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Location Marker"))
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	} else if m.keyword != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("search: %s", m.keyword)))
		b.WriteString("\n\n")
	}

	var out bytes.Buffer
	p := present.NewPrinter(&out, m.cfg, present.Plain(true))

	if loc, ok := m.Selected(); ok && m.detail {
		p.Detail(loc)
		b.WriteString(boxStyle.Render(strings.TrimRight(out.String(), "\n")))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("esc back • / search • q quit"))
		return b.String()
	}

	if len(m.result.Items) == 0 {
		b.WriteString(dimStyle.Render("no waypoints"))
		b.WriteString("\n")
	}
	for i, loc := range m.result.Items {
		line := p.LocationLine(loc)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.result.Page != nil {
		b.WriteString(p.PageFooter(*m.result.Page))
		b.WriteString("   ")
	}
	b.WriteString(p.Total(m.result.Total, m.keyword != ""))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(helpLine()))
	return b.String()
}

func helpLine() string {
	bindings := []key.Binding{keys.Up, keys.Down, keys.Prev, keys.Next, keys.Open, keys.Search, keys.Reload, keys.Quit}
	parts := make([]string, len(bindings))
	for i, kb := range bindings {
		h := kb.Help()
		parts[i] = h.Key + " " + h.Desc
	}
	return strings.Join(parts, " • ")
}
