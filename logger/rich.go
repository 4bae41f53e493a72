package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type RichLoggerOptions struct {
	Output           io.Writer
	TimeFormat       string
	Level            slog.Level
	AddSource        bool
	EnableJSON       bool
	EnableColors     bool
	TimestampInJSON  bool
	CompactJSON      bool
	EnableSeparators bool
}

func DefaultOptions() *RichLoggerOptions {
	return &RichLoggerOptions{
		Level:            slog.LevelInfo,
		AddSource:        false,
		EnableColors:     true,
		TimeFormat:       "2006-01-02 15:04:05.000",
		Output:           os.Stdout,
		TimestampInJSON:  true,
		CompactJSON:      true,
		EnableSeparators: false,
	}
}

type handlerStyles struct {
	time      lipgloss.Style
	source    lipgloss.Style
	message   lipgloss.Style
	attrKey   lipgloss.Style
	separator lipgloss.Style
	levels    map[slog.Level]lipgloss.Style
}

// newHandlerStyles binds styles to w. The renderer drops colors on its own
// when w is not a terminal.
func newHandlerStyles(w io.Writer, enabled bool) handlerStyles {
	r := lipgloss.NewRenderer(w)
	if !enabled {
		plain := r.NewStyle()
		return handlerStyles{
			time: plain, source: plain, message: plain, attrKey: plain, separator: plain,
			levels: map[slog.Level]lipgloss.Style{},
		}
	}

	return handlerStyles{
		time:      r.NewStyle().Foreground(lipgloss.Color("4")),
		source:    r.NewStyle().Foreground(lipgloss.Color("5")),
		message:   r.NewStyle().Foreground(lipgloss.Color("7")).Bold(true),
		attrKey:   r.NewStyle().Foreground(lipgloss.Color("6")),
		separator: r.NewStyle().Foreground(lipgloss.Color("4")),
		levels: map[slog.Level]lipgloss.Style{
			slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
			slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
			slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
			slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

type RichHandler struct {
	opts   *RichLoggerOptions
	styles handlerStyles
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func NewRichHandler(opts *RichLoggerOptions) *RichHandler {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &RichHandler{
		opts:   opts,
		styles: newHandlerStyles(opts.Output, opts.EnableColors),
		mu:     &sync.Mutex{},
	}
}

func (h *RichHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *RichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.qualify(a))
	}
	return h2
}

func (h *RichHandler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

// clone shares the mutex so that derived loggers never interleave writes.
func (h *RichHandler) clone() *RichHandler {
	h2 := &RichHandler{
		opts:   h.opts,
		styles: h.styles,
		mu:     h.mu,
		attrs:  make([]slog.Attr, len(h.attrs)),
		groups: make([]string, len(h.groups)),
	}
	copy(h2.attrs, h.attrs)
	copy(h2.groups, h.groups)
	return h2
}

func (h *RichHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

func (h *RichHandler) recordAttrs(record slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})
	return attrs
}

func (h *RichHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.EnableJSON {
		return h.handleJSON(ctx, record)
	}

	return h.handleText(ctx, record)
}

func (h *RichHandler) handleJSON(_ context.Context, record slog.Record) error {
	jsonMap := make(map[string]interface{})

	if h.opts.TimestampInJSON {
		jsonMap["time"] = record.Time.Format(h.opts.TimeFormat)
	}
	jsonMap["level"] = record.Level.String()

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		jsonMap["source"] = fmt.Sprintf("%s:%d", f.File, f.Line)
	}

	jsonMap["msg"] = record.Message

	for _, a := range h.recordAttrs(record) {
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		jsonMap[a.Key] = v
	}

	var jsonData []byte
	var err error
	if h.opts.CompactJSON {
		jsonData, err = json.Marshal(jsonMap)
	} else {
		jsonData, err = json.MarshalIndent(jsonMap, "", "  ")
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.opts.Output, string(jsonData))
	return err
}

func (h *RichHandler) handleText(_ context.Context, record slog.Record) error {
	var builder strings.Builder

	builder.WriteString(h.styles.time.Render(record.Time.Format(h.opts.TimeFormat)))
	builder.WriteString(" ")

	levelStr := fmt.Sprintf("%-5s", strings.ToUpper(record.Level.String()))
	if style, ok := h.styles.levels[record.Level]; ok {
		levelStr = style.Render(levelStr)
	}
	builder.WriteString(levelStr)
	builder.WriteString(" ")

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		sourceFile := f.File
		if lastSlash := strings.LastIndex(sourceFile, "/"); lastSlash >= 0 {
			sourceFile = sourceFile[lastSlash+1:]
		}
		builder.WriteString(h.styles.source.Render(fmt.Sprintf("%s:%d", sourceFile, f.Line)))
		builder.WriteString(" ")
	}

	builder.WriteString(h.styles.message.Render(record.Message))

	for _, a := range h.recordAttrs(record) {
		builder.WriteString(" ")
		builder.WriteString(h.styles.attrKey.Render(a.Key + "="))
		builder.WriteString(a.Value.Resolve().String())
	}

	if h.opts.EnableSeparators {
		builder.WriteString("\n")
		builder.WriteString(h.styles.separator.Render(strings.Repeat("─", 80)))
	}

	_, err := fmt.Fprintln(h.opts.Output, builder.String())
	return err
}

func NewRichLogger(opts *RichLoggerOptions) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}
	handler := NewRichHandler(opts)
	return slog.New(handler)
}
