package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCodec struct {
	mock.Mock
}

func (m *mockCodec) Convert(task Task, opts Options) Outcome {
	args := m.Called(task, opts)
	return args.Get(0).(Outcome)
}

// fakeCodec fails every source containing "bad" and tracks concurrency.
type fakeCodec struct {
	delay   func(task Task) time.Duration
	running atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (c *fakeCodec) Convert(task Task, _ Options) Outcome {
	c.calls.Add(1)
	n := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if c.delay != nil {
		time.Sleep(c.delay(task))
	}
	if strings.Contains(task.Source, "bad") {
		return Outcome{Source: task.Source, Err: fmt.Errorf("%w: corrupt %s", ErrDecode, task.Source)}
	}
	return Outcome{Source: task.Source, Output: task.OutputPath()}
}

func sources(n int, bad ...int) []string {
	isBad := map[int]bool{}
	for _, b := range bad {
		isBad[b] = true
	}
	out := make([]string, n)
	for i := range out {
		name := fmt.Sprintf("img%02d.png", i)
		if isBad[i] {
			name = fmt.Sprintf("bad%02d.png", i)
		}
		out[i] = filepath.Join("in", name)
	}
	return out
}

func TestRunPreservesSubmissionOrder(t *testing.T) {
	tasks := NewTasks(sources(20), JPEG, "", 0)
	codec := &fakeCodec{delay: func(task Task) time.Duration {
		// Earlier tasks finish last.
		for i, tk := range tasks {
			if tk.Source == task.Source {
				return time.Duration(len(tasks)-i) * time.Millisecond
			}
		}
		return 0
	}}

	outcomes := NewScheduler(4, NewPolicy(DefaultQuality), codec).Run(context.Background(), tasks)

	require.Len(t, outcomes, len(tasks))
	for i, o := range outcomes {
		assert.Equal(t, tasks[i].Source, o.Source)
		assert.True(t, o.Succeeded())
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	tasks := NewTasks(sources(10, 0, 4, 9), PNG, "out", 0)
	codec := &fakeCodec{}

	outcomes := NewScheduler(3, NewPolicy(DefaultQuality), codec).Run(context.Background(), tasks)
	summary := Summarize(outcomes)

	assert.Equal(t, int32(10), codec.calls.Load())
	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 7, summary.Succeeded)
	require.Len(t, summary.Failed, 3)
	assert.Equal(t, tasks[0].Source, summary.Failed[0].Source)
	assert.Equal(t, tasks[4].Source, summary.Failed[1].Source)
	assert.Equal(t, tasks[9].Source, summary.Failed[2].Source)
	assert.ErrorIs(t, outcomes[4].Err, ErrDecode)
}

func TestRunBoundsConcurrency(t *testing.T) {
	tasks := NewTasks(sources(24), WEBP, "", 0)
	codec := &fakeCodec{delay: func(Task) time.Duration { return 5 * time.Millisecond }}

	NewScheduler(3, NewPolicy(DefaultQuality), codec).Run(context.Background(), tasks)

	assert.LessOrEqual(t, codec.peak.Load(), int32(3))
	assert.Equal(t, int32(24), codec.calls.Load())
}

func TestRunDefaultsWorkerCount(t *testing.T) {
	s := NewScheduler(0, NewPolicy(DefaultQuality), &fakeCodec{})
	assert.GreaterOrEqual(t, s.workerCount(1000), 1)
	assert.LessOrEqual(t, s.workerCount(2), 2)

	outcomes := s.Run(context.Background(), NewTasks(sources(5), GIF, "", 0))
	assert.Equal(t, 5, Summarize(outcomes).Succeeded)
}

func TestRunEmptyBatch(t *testing.T) {
	outcomes := NewScheduler(4, NewPolicy(DefaultQuality), &fakeCodec{}).Run(context.Background(), nil)
	assert.Empty(t, outcomes)
	assert.Equal(t, Summary{}, Summarize(outcomes))
}

func TestRunPassesPolicyOptionsToCodec(t *testing.T) {
	codec := &mockCodec{}
	task := Task{Source: "in/a.png", Format: WEBP, Quality: 90}
	want := Options{Quality: 90, Method: 6, HasMethod: true}
	codec.On("Convert", task, want).Return(Outcome{Source: task.Source, Output: "in/a.webp"}).Once()

	outcomes := NewScheduler(2, NewPolicy(DefaultQuality), codec).Run(context.Background(), []Task{task})

	codec.AssertExpectations(t)
	assert.Equal(t, "in/a.webp", outcomes[0].Output)
}

func TestRunRejectsInvalidTaskQualityWithoutCallingCodec(t *testing.T) {
	codec := &mockCodec{}
	tasks := []Task{{Source: "in/a.png", Format: JPEG, Quality: 150}}

	outcomes := NewScheduler(1, NewPolicy(DefaultQuality), codec).Run(context.Background(), tasks)

	codec.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	assert.ErrorIs(t, outcomes[0].Err, ErrInvalidQuality)
	assert.Equal(t, "in/a.png", outcomes[0].Source)
}

func TestRunCancelledContextFailsPendingTasks(t *testing.T) {
	codec := &mockCodec{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := NewTasks(sources(6), PNG, "", 0)
	outcomes := NewScheduler(2, NewPolicy(DefaultQuality), codec).Run(ctx, tasks)

	codec.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
	require.Len(t, outcomes, 6)
	for i, o := range outcomes {
		assert.Equal(t, tasks[i].Source, o.Source)
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
}

func TestRunCancelMidBatchStillYieldsOneOutcomePerTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tasks := NewTasks(sources(30), PNG, "", 0)
	var done atomic.Int32
	s := NewScheduler(2, NewPolicy(DefaultQuality), &fakeCodec{
		delay: func(Task) time.Duration { return time.Millisecond },
	})
	s.OnOutcome = func(int, Outcome) {
		if done.Add(1) == 4 {
			cancel()
		}
	}

	summary := Summarize(s.Run(ctx, tasks))

	assert.Equal(t, 30, summary.Total)
	assert.Equal(t, summary.Total, summary.Succeeded+len(summary.Failed))
	assert.GreaterOrEqual(t, summary.Succeeded, 4)
	assert.NotEmpty(t, summary.Failed)
}

func TestRunRecoversCodecPanic(t *testing.T) {
	codec := &mockCodec{}
	codec.On("Convert", mock.Anything, mock.Anything).Panic("boom").Once()
	codec.On("Convert", mock.Anything, mock.Anything).Return(Outcome{Source: "in/b.png", Output: "in/b.jpeg"})

	tasks := NewTasks([]string{"in/a.png", "in/b.png"}, JPEG, "", 0)
	outcomes := NewScheduler(1, NewPolicy(DefaultQuality), codec).Run(context.Background(), tasks)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "in/a.png", outcomes[0].Source)
	assert.Contains(t, outcomes[0].Reason(), "boom")
	assert.True(t, outcomes[1].Succeeded())
}

func TestRunReportsEveryOutcome(t *testing.T) {
	tasks := NewTasks(sources(12, 3), BMP, "", 0)
	s := NewScheduler(4, NewPolicy(DefaultQuality), &fakeCodec{})

	var mu sync.Mutex
	seen := map[int]Outcome{}
	s.OnOutcome = func(i int, o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = o
	}

	outcomes := s.Run(context.Background(), tasks)

	require.Len(t, seen, len(tasks))
	for i, o := range outcomes {
		assert.Equal(t, o, seen[i])
	}
}

func TestRunCreatesOutputDirectoryOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("encodes real images")
	}

	dir := t.TempDir()
	var paths []string
	for i := 0; i < 8; i++ {
		paths = append(paths, writeSample(t, dir, fmt.Sprintf("img%d.png", i), PNG, gradient()))
	}
	outDir := filepath.Join(dir, "converted", "nested")

	var calls atomic.Int32
	codec := &ImageCodec{
		mkdir: func(d string, perm os.FileMode) error {
			calls.Add(1)
			return os.MkdirAll(d, perm)
		},
	}

	outcomes := NewScheduler(8, NewPolicy(DefaultQuality), codec).Run(context.Background(), NewTasks(paths, BMP, outDir, 0))

	summary := Summarize(outcomes)
	assert.True(t, summary.OK(), "%v", summary.Failed)
	assert.Equal(t, int32(1), calls.Load())
	for _, o := range outcomes {
		assert.FileExists(t, o.Output)
	}
}
