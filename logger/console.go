package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Console is the user-facing output: leveled messages go through the slog
// logger, live widgets (progress bar, spinner) draw on Status.
type Console struct {
	Logger      *slog.Logger
	Out         io.Writer
	Status      io.Writer
	Interactive bool
	Colorized   bool

	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	failure lipgloss.Style
	plain   lipgloss.Style
}

func NewConsole(opts *RichLoggerOptions) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	c := &Console{
		Logger:    NewRichLogger(opts),
		Out:       opts.Output,
		Colorized: opts.EnableColors,
	}
	c.SetStatus(os.Stderr, opts.EnableJSON)
	c.setStyles(lipgloss.NewRenderer(opts.Output))
	return c
}

func (c *Console) setStyles(r *lipgloss.Renderer) {
	c.plain = r.NewStyle()
	if !c.Colorized {
		c.success, c.info, c.warn, c.failure = c.plain, c.plain, c.plain, c.plain
		return
	}
	c.success = r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	c.info = r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	c.warn = r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	c.failure = r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
}

// SetStatus redirects live widgets to w. They only draw when w is a terminal
// and the console is not emitting JSON.
func (c *Console) SetStatus(w io.Writer, jsonOutput bool) {
	c.Status = w
	c.Interactive = IsTerminal(w) && !jsonOutput
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{
		Name:      name,
		StartTime: time.Now(),
		Console:   c,
	}
}

func (c *Console) Success(format string, args ...interface{}) {
	c.Logger.Info(c.success.Render("✓ " + fmt.Sprintf(format, args...)))
}

func (c *Console) Info(format string, args ...interface{}) {
	c.Logger.Info(c.info.Render("ℹ " + fmt.Sprintf(format, args...)))
}

func (c *Console) Log(format string, args ...interface{}) {
	c.Logger.Info(c.plain.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Debug(format string, args ...interface{}) {
	c.Logger.Debug(fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.Logger.Warn(c.warn.Render("⚠ " + fmt.Sprintf(format, args...)))
}

func (c *Console) Error(format string, args ...interface{}) {
	c.Logger.Error(c.failure.Render("✖ " + fmt.Sprintf(format, args...)))
}

func (c *Console) StartSpinner(message string) *Spinner {
	s := &Spinner{
		Message: message,
		Frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Console: c,
	}

	s.Start()
	return s
}

func (c *Console) NewProgressBar(total int64, label string) *ProgressBar {
	bar := NewProgressBar(total, label, c.Status)
	bar.enabled = c.Interactive
	return bar
}

func (c *Console) NewTable(headers []string) *Table {
	return NewTable(headers, c.Out)
}

// Box prints content framed under title.
func (c *Console) Box(title string, content string) {
	lines := splitLines(content)
	titleWidth := len([]rune(title))
	maxWidth := titleWidth

	for _, line := range lines {
		if n := len([]rune(line)); n > maxWidth {
			maxWidth = n
		}
	}

	maxWidth += 4

	fmt.Fprintln(c.Out, "┌─"+title+strings.Repeat("─", maxWidth+1-titleWidth)+"┐")

	for _, line := range lines {
		fmt.Fprintln(c.Out, "│ "+line+strings.Repeat(" ", maxWidth-len([]rune(line)))+" │")
	}

	fmt.Fprintln(c.Out, "└"+strings.Repeat("─", maxWidth+2)+"┘")
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
