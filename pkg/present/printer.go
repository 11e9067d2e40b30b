package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/location-marker/pkg/config"
	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/spatial"
)

type styles struct {
	name     lipgloss.Style
	coord    lipgloss.Style
	at       lipgloss.Style
	desc     lipgloss.Style
	bullet   lipgloss.Style
	voxel    lipgloss.Style
	xaero    lipgloss.Style
	label    lipgloss.Style
	count    lipgloss.Style
	arrowOn  lipgloss.Style
	arrowOff lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	renderer *lipgloss.Renderer
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		name:     r.NewStyle().Foreground(lipgloss.Color("14")),
		coord:    r.NewStyle().Foreground(lipgloss.Color("10")),
		at:       r.NewStyle().Foreground(lipgloss.Color("7")),
		desc:     r.NewStyle().Foreground(lipgloss.Color("7")).Italic(true),
		bullet:   r.NewStyle().Foreground(lipgloss.Color("7")),
		voxel:    r.NewStyle().Foreground(lipgloss.Color("14")),
		xaero:    r.NewStyle().Foreground(lipgloss.Color("3")),
		label:    r.NewStyle().Bold(true),
		count:    r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		arrowOn:  r.NewStyle().Foreground(lipgloss.Color("7")),
		arrowOff: r.NewStyle().Foreground(lipgloss.Color("8")),
		success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		failure:  r.NewStyle().Foreground(lipgloss.Color("9")),
		renderer: r,
	}
}

// Printer writes locations to a terminal or any other writer
type Printer struct {
	w      io.Writer
	cfg    config.Config
	plain  bool
	styles styles
}

// PrinterOption configures a Printer
type PrinterOption func(*Printer)

// Plain disables all styling
func Plain(plain bool) PrinterOption {
	return func(p *Printer) {
		p.plain = plain
	}
}

// NewPrinter creates a printer writing to w. The color profile is detected from w.
func NewPrinter(w io.Writer, cfg config.Config, opts ...PrinterOption) *Printer {
	p := &Printer{
		w:      w,
		cfg:    cfg,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

// LocationLine is the one-line form: name, coordinates, zone and note
func (p *Printer) LocationLine(loc models.Location) string {
	var b strings.Builder
	b.WriteString(p.render(p.styles.name, loc.Name))
	b.WriteString(" ")
	b.WriteString(p.render(p.styles.coord, CoordText(loc.Pos)))
	b.WriteString(p.render(p.styles.at, " @ "))
	b.WriteString(p.render(p.styles.renderer.NewStyle().Foreground(zoneColor(loc.Dim)), ZoneName(loc.Dim)))
	if loc.HasDesc() {
		b.WriteString(" ")
		b.WriteString(p.render(p.styles.desc, *loc.Desc))
	}
	return b.String()
}

// Item prints a location as a list entry
func (p *Printer) Item(loc models.Location) {
	fmt.Fprintf(p.w, "%s%s\n", p.render(p.styles.bullet, "- "), p.LocationLine(loc))
}

// Announce prints a location without the list bullet, followed by the
// shortcuts enabled in the config
func (p *Printer) Announce(loc models.Location) {
	fmt.Fprintln(p.w, p.LocationLine(loc))
	p.shortcuts(loc)
}

// Detail prints every field of a location
func (p *Printer) Detail(loc models.Location) {
	desc := "none"
	if loc.HasDesc() {
		desc = *loc.Desc
	}
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.styles.label, "Name:"), p.render(p.styles.name, loc.Name))
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.styles.label, "Coordinates:"), p.render(p.styles.coord, CoordText(loc.Pos)))
	fmt.Fprintf(p.w, "%s %s (%s)\n", p.render(p.styles.label, "Dimension:"),
		p.render(p.styles.renderer.NewStyle().Foreground(zoneColor(loc.Dim)), ZoneName(loc.Dim)), DimKey(loc.Dim))
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.styles.label, "Description:"), p.render(p.styles.desc, desc))
	p.shortcuts(loc)
}

func (p *Printer) shortcuts(loc models.Location) {
	if p.cfg.TeleportHintOnCoordinate {
		fmt.Fprintf(p.w, "  %s %s\n", p.render(p.styles.at, "tp:"), TeleportCommand(loc))
	}
	if p.cfg.DisplayVoxelWaypoint {
		fmt.Fprintf(p.w, "  %s %s\n", p.render(p.styles.voxel, "[+V]"), VoxelWaypoint(loc))
	}
	if p.cfg.DisplayXaeroWaypoint {
		fmt.Fprintf(p.w, "  %s %s\n", p.render(p.styles.xaero, "[+X]"), XaeroWaypoint(loc))
	}
}

// Listing prints a search result: the entries, a page footer when the
// result is paginated, and the total
func (p *Printer) Listing(res search.Result, keyword string) {
	for _, loc := range res.Items {
		p.Item(loc)
	}
	if res.Page != nil {
		fmt.Fprintln(p.w, p.PageFooter(*res.Page))
	}
	fmt.Fprintln(p.w, p.Total(res.Total, keyword != ""))
}

// PageFooter renders "<- page N ->" with dimmed arrows where no page exists
func (p *Printer) PageFooter(page search.Page) string {
	prev, next := p.styles.arrowOff, p.styles.arrowOff
	if page.HasPrev {
		prev = p.styles.arrowOn
	}
	if page.HasNext {
		next = p.styles.arrowOn
	}
	prevText, nextText := "<-", "->"
	if p.plain {
		if !page.HasPrev {
			prevText = "  "
		}
		if !page.HasNext {
			nextText = "  "
		}
	}
	return fmt.Sprintf("%s page %s %s",
		p.render(prev, prevText), p.render(p.styles.count, fmt.Sprint(page.Number)), p.render(next, nextText))
}

// Total renders the match count line
func (p *Printer) Total(total int, searched bool) string {
	n := p.render(p.styles.count, fmt.Sprint(total))
	if searched {
		return fmt.Sprintf("found %s waypoints", n)
	}
	return fmt.Sprintf("%s waypoints in total", n)
}

// Hits prints proximity results with their distances
func (p *Printer) Hits(hits []spatial.Hit) {
	for _, h := range hits {
		fmt.Fprintf(p.w, "%s%s %s\n", p.render(p.styles.bullet, "- "), p.LocationLine(h.Location),
			p.render(p.styles.at, fmt.Sprintf("(%.1f blocks)", h.Distance)))
	}
	fmt.Fprintln(p.w, p.Total(len(hits), true))
}

// Success prints a confirmation message
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(p.styles.success, fmt.Sprintf(format, args...)))
}

// Failure prints an error message
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(p.styles.failure, fmt.Sprintf(format, args...)))
}
