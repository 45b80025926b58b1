package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/client"
	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/querycache"
	"github.com/noah-isme/sma-adp-console/internal/querykey"
	"github.com/noah-isme/sma-adp-console/internal/session"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   [][]byte
	status   int
	reply    string
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, body)
	status, reply := f.status, f.reply
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newCoordinator(t *testing.T, api *fakeAPI, opts ...Option) (*Coordinator, *querycache.Cache) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)
	provider := session.NewContextProvider("token")
	caches := querycache.NewRegistry(session.Scope(provider))
	cache, err := caches.For(context.Background())
	require.NoError(t, err)
	c := client.New(srv.URL, provider)
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return New(c, caches, opts...), cache
}

func seed(t *testing.T, cache *querycache.Cache, key querykey.Key, data any) {
	t.Helper()
	_, err := cache.Read(context.Background(), key, func(context.Context) (any, error) { return data, nil })
	require.NoError(t, err)
}

func status(t *testing.T, cache *querycache.Cache, key querykey.Key) querycache.Status {
	t.Helper()
	entry, ok := cache.Peek(key)
	require.True(t, ok, "entry %s missing", key)
	return entry.Status
}

func TestCreateSubscriptionInvalidatesOnlyItsClass(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, reply: `{"id":31,"studentId":9,"studyClassId":4,"date":"2026-10-17T08:00:00Z"}`}
	stamp := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	coord, cache := newCoordinator(t, api, WithClock(func() time.Time { return stamp }))
	seed(t, cache, querykey.SubscriptionsByClass(4), []models.Subscription{})
	seed(t, cache, querykey.SubscriptionsByClass(5), []models.Subscription{})

	sub, err := Do[*models.Subscription](context.Background(), coord, CreateSubscription,
		dto.CreateSubscriptionRequest{StudentID: 9, StudyClassID: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(31), sub.ID)

	assert.Equal(t, []string{"POST /subscriptions"}, api.calls())
	var sent dto.CreateSubscriptionRequest
	require.NoError(t, json.Unmarshal(api.bodies[0], &sent))
	assert.True(t, stamp.Equal(sent.Date), "empty date is stamped with submission time")

	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.SubscriptionsByClass(4)))
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.SubscriptionsByClass(5)))
}

func TestEnrollProfessorWritesDetailAndInvalidatesLists(t *testing.T) {
	api := &fakeAPI{reply: `{"id":4,"classCode":"MAT-1","year":2026,"semester":1,"courseId":1,"professorId":2}`}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.StudyClasses(), []models.StudyClass{{ID: 4, CourseID: 1}})
	seed(t, cache, querykey.StudyClassesByCourse(1), []models.StudyClass{{ID: 4, CourseID: 1}})
	seed(t, cache, querykey.StudyClass(4), models.StudyClass{ID: 4, CourseID: 1})

	_, err := coord.Mutate(context.Background(), EnrollProfessor, dto.EnrollProfessorRequest{StudyClassID: 4, ProfessorID: 2})
	require.NoError(t, err)

	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.StudyClasses()))
	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.StudyClassesByCourse(1)))
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.StudyClass(4)))

	class, hit, err := querycache.Get(context.Background(), cache, querykey.StudyClass(4), func(context.Context) (models.StudyClass, error) {
		t.Fatal("detail must be served from the written entry")
		return models.StudyClass{}, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	require.NotNil(t, class.ProfessorID)
	assert.Equal(t, int64(2), *class.ProfessorID)
	assert.Equal(t, []string{"PUT /study-classes/4/professor/2"}, api.calls())
}

func TestValidationFailureSkipsRequest(t *testing.T) {
	api := &fakeAPI{}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.Students(), []models.Student{})

	_, err := coord.Mutate(context.Background(), CreateStudent, dto.CreateStudentRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	typed := appErrors.FromError(err)
	assert.Equal(t, "is required", typed.FieldErrors["name"])
	assert.Equal(t, "must be a valid email", typed.FieldErrors["email"])
	assert.Empty(t, api.calls())
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.Students()))
}

func TestRouteIDFieldsUseLowercaseNames(t *testing.T) {
	coord, _ := newCoordinator(t, &fakeAPI{})
	_, err := coord.Mutate(context.Background(), UpdateCourse, &dto.UpdateCourseRequest{Name: "Math"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).FieldErrors, "id")
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	api := &fakeAPI{status: http.StatusInternalServerError, reply: `{"message":"boom"}`}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.StudyClasses(), []models.StudyClass{})

	_, err := coord.Mutate(context.Background(), EnrollProfessor, dto.EnrollProfessorRequest{StudyClassID: 4, ProfessorID: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAPI))
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.StudyClasses()))
}

func TestDuplicateSubscriptionSurfacesFieldErrors(t *testing.T) {
	api := &fakeAPI{status: http.StatusConflict, reply: `{"message":"duplicate","fieldErrors":{"studentId":"already subscribed"}}`}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.SubscriptionsByClass(4), []models.Subscription{})

	_, err := coord.Mutate(context.Background(), CreateSubscription, dto.CreateSubscriptionRequest{StudentID: 9, StudyClassID: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "already subscribed", appErrors.FromError(err).FieldErrors["studentId"])
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.SubscriptionsByClass(4)))
}

func TestDeleteSubscriptionWithoutClassInvalidatesAllClasses(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.SubscriptionsByClass(4), []models.Subscription{})
	seed(t, cache, querykey.SubscriptionsByClass(5), []models.Subscription{})

	_, err := coord.Mutate(context.Background(), DeleteSubscription, dto.DeleteSubscriptionRequest{ID: 31})
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.SubscriptionsByClass(4)))
	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.SubscriptionsByClass(5)))
	assert.Equal(t, []string{"DELETE /subscriptions/31"}, api.calls())
}

func TestDeleteStudentInvalidatesDependentRosters(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.Students(), []models.Student{})
	seed(t, cache, querykey.Student(9), models.Student{ID: 9})
	seed(t, cache, querykey.StudentsBySubscriptions([]int64{31}), []models.SubscribedStudent{})
	seed(t, cache, querykey.SubscriptionsByClass(4), []models.Subscription{})
	seed(t, cache, querykey.Courses(), []models.Course{})

	_, err := coord.Mutate(context.Background(), DeleteStudent, dto.DeleteStudentRequest{ID: 9})
	require.NoError(t, err)
	for _, key := range []querykey.Key{
		querykey.Students(),
		querykey.Student(9),
		querykey.StudentsBySubscriptions([]int64{31}),
		querykey.SubscriptionsByClass(4),
	} {
		assert.Equal(t, querycache.StatusStale, status(t, cache, key), key.String())
	}
	assert.Equal(t, querycache.StatusFresh, status(t, cache, querykey.Courses()))
}

func TestEffectsOrderInvalidationsBeforeWrites(t *testing.T) {
	coord, _ := newCoordinator(t, &fakeAPI{})
	professor := &models.Professor{ID: 2, Name: "Ada"}
	effects := coord.Effects(UpdateProfessor, dto.UpdateProfessorRequest{ID: 2}, professor)
	require.Len(t, effects, 2)
	assert.Equal(t, EffectInvalidate, effects[0].Kind)
	assert.Equal(t, EffectWrite, effects[1].Kind)
	assert.True(t, effects[1].Key.Equal(querykey.Professor(2)))
	assert.Equal(t, models.Professor{ID: 2, Name: "Ada"}, effects[1].Data)
}

func TestUnknownOperationAndPayloadMismatch(t *testing.T) {
	api := &fakeAPI{}
	coord, _ := newCoordinator(t, api)

	_, err := coord.Mutate(context.Background(), Operation("archiveCourse"), dto.DeleteCourseRequest{ID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = coord.Mutate(context.Background(), DeleteCourse, dto.DeleteStudentRequest{ID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = coord.Mutate(context.Background(), DeleteCourse, nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, api.calls())
}

type mutationRecorder struct {
	ops  []string
	errs []error
}

func (r *mutationRecorder) ObserveMutation(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestRecorderSeesOutcome(t *testing.T) {
	rec := &mutationRecorder{}
	coord, _ := newCoordinator(t, &fakeAPI{status: http.StatusCreated, reply: `{"id":1,"name":"Math"}`}, WithRecorder(rec))

	course, err := Do[*models.Course](context.Background(), coord, CreateCourse, dto.CreateCourseRequest{Name: "Math"})
	require.NoError(t, err)
	assert.Equal(t, "Math", course.Name)
	assert.Equal(t, []string{"createCourse"}, rec.ops)
	assert.NoError(t, rec.errs[0])
}

func TestEnrollWithoutBodyInvalidatesInsteadOfWriting(t *testing.T) {
	api := &fakeAPI{status: http.StatusNoContent}
	coord, cache := newCoordinator(t, api)
	seed(t, cache, querykey.StudyClassesByCourse(1), []models.StudyClass{{ID: 4, CourseID: 1}})
	seed(t, cache, querykey.StudyClass(4), models.StudyClass{ID: 4, CourseID: 1})

	_, err := coord.Mutate(context.Background(), EnrollProfessor, dto.EnrollProfessorRequest{StudyClassID: 4, ProfessorID: 2})
	require.NoError(t, err)

	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.StudyClassesByCourse(1)))
	assert.Equal(t, querycache.StatusStale, status(t, cache, querykey.StudyClass(4)))
	_, ok := cache.Peek(querykey.StudyClass(0))
	assert.False(t, ok)
	_, ok = cache.Peek(querykey.StudyClassesByCourse(0))
	assert.False(t, ok)
}

func TestWriteEffectStaysInCallerPartition(t *testing.T) {
	api := &fakeAPI{reply: `{"id":2,"name":"Ada","email":"ada@school.test"}`}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)
	provider := session.NewContextProvider("")
	caches := querycache.NewRegistry(session.Scope(provider))
	coord := New(client.New(srv.URL, provider), caches)

	admin := session.WithToken(context.Background(), "admin")
	other := session.WithToken(context.Background(), "registrar")
	otherCache, err := caches.For(other)
	require.NoError(t, err)
	seed(t, otherCache, querykey.Professor(2), models.Professor{ID: 2, Name: "Old"})

	_, err = coord.Mutate(admin, UpdateProfessor, dto.UpdateProfessorRequest{ID: 2, Name: "Ada", Email: "ada@school.test"})
	require.NoError(t, err)

	adminCache, err := caches.For(admin)
	require.NoError(t, err)
	assert.Equal(t, querycache.StatusFresh, status(t, adminCache, querykey.Professor(2)))
	assert.Equal(t, querycache.StatusStale, status(t, otherCache, querykey.Professor(2)))
}
