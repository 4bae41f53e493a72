package convert

import (
	"path/filepath"
	"strings"
)

// Task is one file conversion. Quality 0 means the policy default applies,
// an empty OutputDir means alongside the source.
type Task struct {
	Source    string
	Format    Format
	OutputDir string
	Quality   int
}

// NewTasks builds one Task per source path with shared settings.
func NewTasks(sources []string, f Format, outputDir string, quality int) []Task {
	tasks := make([]Task, len(sources))
	for i, src := range sources {
		tasks[i] = Task{Source: src, Format: f, OutputDir: outputDir, Quality: quality}
	}
	return tasks
}

// OutputPath resolves where the converted file for t is written.
func (t Task) OutputPath() string {
	dir := t.OutputDir
	if dir == "" {
		dir = filepath.Dir(t.Source)
	}
	base := filepath.Base(t.Source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+t.Format.Extension())
}

// Outcome is the terminal result of a Task. Err is nil on success, in which
// case Output holds the written path.
type Outcome struct {
	Source string
	Output string
	Err    error
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Reason returns the failure message, or "" for a successful outcome.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
