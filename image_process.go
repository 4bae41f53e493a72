package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"imgconv/convert"
	"imgconv/logger"
)

var errBatchFailed = errors.New("one or more files failed to convert")

type Processor struct {
	Scheduler *convert.Scheduler
	Console   *logger.Console
	Format    convert.Format
	OutputDir string
	Quality   int
}

func NewProcessor(cfg *Config, console *logger.Console) *Processor {
	return &Processor{
		Scheduler: convert.NewScheduler(cfg.Workers, cfg.Policy(), convert.NewImageCodec()),
		Console:   console,
		Format:    cfg.Format,
		OutputDir: cfg.OutputDir,
		Quality:   cfg.Quality,
	}
}

// ProcessPath converts path, a file or a directory, and reports the result.
// It returns errBatchFailed when any file failed and convert.ErrNoMatchingFiles
// for a directory with nothing to convert.
func (p *Processor) ProcessPath(ctx context.Context, path string) (convert.Summary, error) {
	files, err := convert.Discover(path)
	if errors.Is(err, convert.ErrNoMatchingFiles) {
		p.Console.Warn("No files found to process in %s", path)
		summary := convert.Summary{}
		p.displayResults(summary, 0)
		return summary, err
	}
	if err != nil {
		return convert.Summary{}, err
	}

	tasks := convert.NewTasks(files, p.Format, p.OutputDir, p.Quality)

	start := time.Now()
	var outcomes []convert.Outcome
	if len(tasks) == 1 {
		outcomes = p.processSingleFile(ctx, tasks[0])
	} else {
		outcomes = p.processBatch(ctx, path, tasks)
	}

	summary := convert.Summarize(outcomes)
	p.displayResults(summary, time.Since(start))

	if !summary.OK() {
		return summary, errBatchFailed
	}
	return summary, nil
}

func (p *Processor) processSingleFile(ctx context.Context, task convert.Task) []convert.Outcome {
	timer := p.Console.StartTimer("File conversion")
	spinner := p.Console.StartSpinner(fmt.Sprintf("Converting %s to %s", task.Source, task.Format))

	outcomes := p.Scheduler.Run(ctx, []convert.Task{task})
	timer.End()

	o := outcomes[0]
	if o.Succeeded() {
		spinner.Stop(true, fmt.Sprintf("%s -> %s", o.Source, o.Output))
	} else {
		spinner.Stop(false, fmt.Sprintf("%s: %s", o.Source, o.Reason()))
	}
	return outcomes
}

func (p *Processor) processBatch(ctx context.Context, dir string, tasks []convert.Task) []convert.Outcome {
	p.Console.Info("Processing directory: %s (%d files, format: %s, workers: %d)",
		dir, len(tasks), p.Format, p.Scheduler.Workers)

	bar := p.Console.NewProgressBar(int64(len(tasks)), "Converting images")

	// The scheduler is independent of the console, so reporting happens here.
	p.Scheduler.OnOutcome = func(_ int, o convert.Outcome) {
		if o.Succeeded() {
			p.Console.Success("%s -> %s", o.Source, o.Output)
		} else {
			p.Console.Error("%s: %s", o.Source, o.Reason())
		}
		bar.Increment(1)
	}
	defer func() { p.Scheduler.OnOutcome = nil }()

	outcomes := p.Scheduler.Run(ctx, tasks)
	bar.Complete()
	return outcomes
}

func (p *Processor) displayResults(summary convert.Summary, elapsed time.Duration) {
	table := p.Console.NewTable([]string{"Metric", "Value"})
	table.AddRow("Total files", fmt.Sprintf("%d", summary.Total))
	table.AddRow("Succeeded", fmt.Sprintf("%d", summary.Succeeded))
	table.AddRow("Failed", fmt.Sprintf("%d", len(summary.Failed)))
	table.AddRow("Target format", p.Format.String())
	table.AddRow("Duration", elapsed.Round(time.Millisecond).String())

	p.Console.Info("Processing Summary:")
	table.Print()

	if len(summary.Failed) > 0 {
		lines := make([]string, len(summary.Failed))
		for i, f := range summary.Failed {
			lines[i] = filepath.Base(f.Source) + ": " + f.Reason
		}
		p.Console.Box("Failed files", strings.Join(lines, "\n"))
	}

	p.Console.Log("total=%d succeeded=%d failed=%d", summary.Total, summary.Succeeded, len(summary.Failed))
}
