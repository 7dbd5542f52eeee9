package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

const (
	colorPrimary   = "252"
	colorSecondary = "244"
	colorAccent    = "75"
	colorAlert     = "203"
	wrapWidth      = 100
)

var stepLabels = map[domain.StepKind]string{
	domain.StepThink:   "Thinking",
	domain.StepAction:  "Action",
	domain.StepObserve: "Observing",
	domain.StepOutput:  "Assistant",
}

// Renderer prints agent progress as one labelled line per event. Styling is
// applied only when the destination is a terminal.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	styled   bool
	markdown bool
	md       *glamour.TermRenderer

	label  lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	alert  lipgloss.Style
}

// NewRenderer builds a renderer for out. With markdown set, the final
// answer is rendered through glamour.
func NewRenderer(out io.Writer, markdown bool) *Renderer {
	r := &Renderer{
		out:      out,
		styled:   IsTerminal(out),
		markdown: markdown,
		label:    lipgloss.NewStyle(),
		muted:    lipgloss.NewStyle(),
		accent:   lipgloss.NewStyle(),
		alert:    lipgloss.NewStyle(),
	}
	if r.styled {
		r.label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPrimary))
		r.muted = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSecondary))
		r.accent = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
		r.alert = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAlert))
	}
	if markdown {
		r.md = newMarkdownRenderer(r.styled)
	}
	return r
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newMarkdownRenderer(styled bool) *glamour.TermRenderer {
	style := glamour.WithStylePath("ascii")
	if styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return nil
	}
	return r
}

// User echoes the query that starts a run.
func (r *Renderer) User(query string) {
	r.printf("%s %s\n\n", r.label.Render("User:"), query)
}

// Step implements ports.ProgressReporter.
func (r *Renderer) Step(kind domain.StepKind, text string) {
	label, ok := stepLabels[kind]
	if !ok {
		label = string(kind)
	}
	switch kind {
	case domain.StepOutput:
		r.printf("%s %s\n", r.label.Render(label+":"), r.answer(text))
	case domain.StepAction:
		r.printf("%s %s\n", r.accent.Render(label+":"), text)
	default:
		r.printf("%s %s\n", r.muted.Render(label+":"), text)
	}
}

// Notice implements ports.ProgressReporter.
func (r *Renderer) Notice(text string) {
	style := r.muted
	if isFailureNotice(text) {
		style = r.alert
	}
	r.printf("%s\n", style.Render(text))
}

// Completed closes a run.
func (r *Renderer) Completed() {
	r.printf("\n%s\n", r.label.Render("Process completed."))
}

func (r *Renderer) answer(text string) string {
	if r.md == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return "\n" + strings.Trim(out, "\n")
}

func (r *Renderer) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func isFailureNotice(text string) bool {
	for _, prefix := range []string{"API Error", "JSON Parse Error", "Unknown tool", "Tool execution failed", "Maximum steps"} {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

var _ ports.ProgressReporter = (*Renderer)(nil)
