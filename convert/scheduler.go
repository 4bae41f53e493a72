package convert

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Scheduler runs tasks on a bounded worker pool. A failed task never stops
// the others.
type Scheduler struct {
	Workers int
	Policy  Policy
	Codec   Codec

	// OnOutcome, when set, is called from the worker goroutine as soon as a
	// task reaches a terminal state. It must be safe for concurrent use.
	OnOutcome func(index int, o Outcome)
}

func NewScheduler(workers int, policy Policy, codec Codec) *Scheduler {
	if codec == nil {
		codec = NewImageCodec()
	}
	return &Scheduler{
		Workers: workers,
		Policy:  policy,
		Codec:   codec,
	}
}

// Run blocks until every task has an outcome and returns them in the order
// the tasks were given. Once ctx is done, tasks that have not started yet
// fail with the context error; running tasks finish.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	jobs := make(chan int, len(tasks))
	for i := range tasks {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < s.workerCount(len(tasks)); w++ {
		wg.Add(1)
		go s.worker(ctx, tasks, outcomes, jobs, &wg)
	}
	wg.Wait()

	return outcomes
}

func (s *Scheduler) workerCount(tasks int) int {
	n := s.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > tasks {
		n = tasks
	}
	return n
}

// Each index is owned by exactly one worker, so outcomes needs no lock.
func (s *Scheduler) worker(ctx context.Context, tasks []Task, outcomes []Outcome,
	jobs <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()

	for i := range jobs {
		outcomes[i] = s.runTask(ctx, tasks[i])
		if s.OnOutcome != nil {
			s.OnOutcome(i, outcomes[i])
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context, task Task) (o Outcome) {
	o.Source = task.Source

	if err := ctx.Err(); err != nil {
		o.Err = fmt.Errorf("not started: %w", err)
		return o
	}

	opts, err := s.Policy.OptionsFor(task.Format, task.Quality)
	if err != nil {
		o.Err = err
		return o
	}

	defer func() {
		if r := recover(); r != nil {
			o = Outcome{Source: task.Source, Err: fmt.Errorf("codec panic: %v", r)}
		}
	}()

	o = s.Codec.Convert(task, opts)
	if o.Source == "" {
		o.Source = task.Source
	}
	return o
}
