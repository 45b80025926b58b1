package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "a"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "b"}))
	got := []string{<-done, <-done}
	assert.ElementsMatch(t, []string{"a", "b"}, got)
	assert.Eventually(t, func() bool { return q.Stats().Succeeded == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenReportsExhaustion(t *testing.T) {
	var attempts atomic.Int32
	exhausted := make(chan Job, 1)
	q := NewQueue("test", func(context.Context, Job) error {
		attempts.Add(1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
		OnExhausted: func(job Job, _ error) { exhausted <- job },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "x"}))
	select {
	case job := <-exhausted:
		assert.Equal(t, "x", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never exhausted")
	}
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, uint64(2), q.Stats().Retried)
}

func TestEnqueueRequiresRunningQueue(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(context.Background(), Job{ID: "a"})
	assert.True(t, errors.Is(err, ErrNotRunning))

	q.Start(context.Background())
	q.Stop()
	err = q.Enqueue(context.Background(), Job{ID: "b"})
	assert.True(t, errors.Is(err, ErrNotRunning))
}
