package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-console/internal/models"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

type studentFetcher struct {
	mu       sync.Mutex
	calls    []int64
	inFlight int32
	peak     int32
	fail     map[int64]error
	delay    time.Duration
}

func (f *studentFetcher) fetch(ctx context.Context, id int64) (models.Student, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if current <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, current) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.fail[id]; err != nil {
		return models.Student{}, err
	}
	return models.Student{ID: id, Name: "student"}, nil
}

func TestResolveStudentsDeduplicatesAndKeepsFirstSeenOrder(t *testing.T) {
	f := &studentFetcher{}
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	subs := []models.Subscription{
		{ID: 10, StudentID: 1, StudyClassID: 4, Date: day},
		{ID: 11, StudentID: 1, StudyClassID: 4, Date: day.AddDate(0, 0, 1)},
		{ID: 12, StudentID: 2, StudyClassID: 4, Date: day.AddDate(0, 0, 2)},
	}

	got, err := ResolveStudents(context.Background(), Config{BatchSize: 1}, subs, f.fetch)
	require.NoError(t, err)

	want := []models.SubscribedStudent{
		{Student: models.Student{ID: 1, Name: "student"}, SubscriptionID: 10, SubscriptionDate: day},
		{Student: models.Student{ID: 2, Name: "student"}, SubscriptionID: 12, SubscriptionDate: day.AddDate(0, 0, 2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolved students mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, []int64{1, 2}, f.calls)
	assert.Len(t, f.calls, 2)
}

func TestResolveEmptyInputSkipsFetching(t *testing.T) {
	f := &studentFetcher{}
	got, err := ResolveStudents(context.Background(), Config{}, nil, f.fetch)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, f.calls)
}

func TestResolveBoundsConcurrencyToBatchSize(t *testing.T) {
	f := &studentFetcher{delay: 5 * time.Millisecond}
	subs := make([]models.Subscription, 0, 23)
	for i := 1; i <= 23; i++ {
		subs = append(subs, models.Subscription{ID: int64(100 + i), StudentID: int64(i)})
	}

	got, err := ResolveStudents(context.Background(), Config{BatchSize: 5}, subs, f.fetch)
	require.NoError(t, err)
	require.Len(t, got, 23)
	assert.LessOrEqual(t, atomic.LoadInt32(&f.peak), int32(5))
	for i, s := range got {
		assert.Equal(t, int64(i+1), s.ID, "result order follows key order, not completion order")
	}
}

func TestResolveChunksRunSequentially(t *testing.T) {
	var mu sync.Mutex
	var order []int64
	release := make(chan struct{})
	fetch := func(ctx context.Context, id int64) (int64, error) {
		if id == 1 {
			<-release
		}
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
		return id, nil
	}
	joins := []int64{1, 2, 3}

	done := make(chan []int64, 1)
	go func() {
		out, _ := Resolve(context.Background(), Config{BatchSize: 2}, joins,
			func(j int64) int64 { return j }, fetch,
			func(e int64, _ int64) int64 { return e })
		done <- out
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.NotContains(t, order, int64(3), "chunk 2 must wait for chunk 1 to settle")
	mu.Unlock()
	close(release)

	assert.Equal(t, []int64{1, 2, 3}, <-done)
	assert.Equal(t, int64(3), order[len(order)-1])
}

func TestResolveFailsFast(t *testing.T) {
	f := &studentFetcher{fail: map[int64]error{2: appErrors.Clone(appErrors.ErrNotFound, "student 2 missing")}}
	subs := []models.Subscription{{StudentID: 1}, {StudentID: 2}, {StudentID: 3}}

	got, err := ResolveStudents(context.Background(), Config{BatchSize: 1}, subs, f.fetch)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, appErrors.ErrBatchPartialFailure))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NotContains(t, f.calls, int64(3), "later chunks are not issued after a failure")
}

func TestResolvePassesUnauthorizedThrough(t *testing.T) {
	f := &studentFetcher{fail: map[int64]error{1: appErrors.ErrUnauthorized}}
	_, err := ResolveStudents(context.Background(), Config{}, []models.Subscription{{StudentID: 1}}, f.fetch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	assert.False(t, errors.Is(err, appErrors.ErrBatchPartialFailure))
}

type batchRecorder struct{ keys, chunks int }

func (r *batchRecorder) ObserveBatchResolution(keys, chunks int) {
	r.keys, r.chunks = keys, chunks
}

func TestResolveReportsBatchShape(t *testing.T) {
	rec := &batchRecorder{}
	f := &studentFetcher{}
	subs := []models.Subscription{{StudentID: 1}, {StudentID: 2}, {StudentID: 2}, {StudentID: 3}}

	_, err := ResolveStudents(context.Background(), Config{BatchSize: 2, Recorder: rec}, subs, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.keys)
	assert.Equal(t, 2, rec.chunks)
}
