package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// recordingAnalyzer collects every job it sees; an optional gate blocks
// Analyze so tests can hold workers busy.
type recordingAnalyzer struct {
	mu   sync.Mutex
	jobs []Job
	gate chan struct{}
	err  error
	done chan struct{}
}

func (a *recordingAnalyzer) Analyze(ctx context.Context, job Job) error {
	if a.gate != nil {
		<-a.gate
	}
	a.mu.Lock()
	a.jobs = append(a.jobs, job)
	a.mu.Unlock()
	if a.done != nil {
		a.done <- struct{}{}
	}
	return a.err
}

func (a *recordingAnalyzer) seen() []Job {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Job(nil), a.jobs...)
}

func testJob() Job {
	return Job{Type: JobTypeAnalyzeWorkout, LogID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
}

func TestDispatcherDeliversJobs(t *testing.T) {
	analyzer := &recordingAnalyzer{done: make(chan struct{}, 4)}
	d := NewDispatcher(analyzer, 4, 2, zerolog.Nop())
	d.Start(context.Background())
	defer d.Stop()

	first := testJob()
	second := testJob()
	d.Enqueue(first)
	d.Enqueue(second)

	for i := 0; i < 2; i++ {
		select {
		case <-analyzer.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for analysis jobs")
		}
	}

	seen := analyzer.seen()
	require.Len(t, seen, 2)
	ids := map[primitive.ObjectID]bool{seen[0].LogID: true, seen[1].LogID: true}
	assert.True(t, ids[first.LogID])
	assert.True(t, ids[second.LogID])
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	// One worker, held at the gate, and a single queue slot: the first job
	// occupies the worker, the second fills the queue, anything beyond
	// must be dropped without blocking the caller.
	analyzer := &recordingAnalyzer{gate: make(chan struct{})}
	d := NewDispatcher(analyzer, 1, 1, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(testJob())
	time.Sleep(50 * time.Millisecond) // let the worker pick up the first job
	d.Enqueue(testJob())

	returned := make(chan struct{})
	go func() {
		d.Enqueue(testJob()) // queue full, must drop immediately
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	close(analyzer.gate)
	d.Stop()
}

func TestFailedJobIsNotRetried(t *testing.T) {
	analyzer := &recordingAnalyzer{err: assert.AnError, done: make(chan struct{}, 1)}
	d := NewDispatcher(analyzer, 4, 1, zerolog.Nop())
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(testJob())
	select {
	case <-analyzer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the analysis job")
	}

	// Give a would-be retry time to show up.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, analyzer.seen(), 1)
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(NoopAnalyzer{}, 0, 0, zerolog.Nop())
	assert.Equal(t, 64, cap(d.jobs))
	assert.Equal(t, 2, d.workers)
}
