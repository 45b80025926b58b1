package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/batch"
	"github.com/noah-isme/sma-adp-console/internal/querycache"
	"github.com/noah-isme/sma-adp-console/internal/querykey"
	"github.com/noah-isme/sma-adp-console/internal/session"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

func newDirectory(api *readerStub) (*DirectoryService, *querycache.Cache) {
	caches := querycache.NewRegistry(session.Scope(session.NewContextProvider("service-token")))
	cache, _ := caches.For(context.Background())
	return NewDirectoryService(api, caches, batch.Config{BatchSize: 2}, zap.NewNop()), cache
}

func TestDirectoryServesRepeatReadsFromCache(t *testing.T) {
	api := newReaderStub()
	dir, _ := newDirectory(api)

	courses, hit, err := dir.Courses(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, courses, 2)

	_, hit, err = dir.Courses(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, api.callCount("ListCourses"))
}

func TestDirectoryStudyClassesKeyedByCourse(t *testing.T) {
	api := newReaderStub()
	dir, _ := newDirectory(api)

	byMath, _, err := dir.StudyClasses(context.Background(), 1)
	require.NoError(t, err)
	byPhysics, _, err := dir.StudyClasses(context.Background(), 2)
	require.NoError(t, err)
	all, _, err := dir.StudyClasses(context.Background(), 0)
	require.NoError(t, err)

	assert.Len(t, byMath, 2)
	assert.Len(t, byPhysics, 1)
	assert.Len(t, all, 3)
	assert.Equal(t, 2, api.callCount("ListStudyClassesByCourse"))
	assert.Equal(t, 1, api.callCount("ListStudyClasses"))
}

func TestDirectoryRosterResolvesStudentsInSubscriptionOrder(t *testing.T) {
	api := newReaderStub()
	dir, cache := newDirectory(api)

	roster, hit, err := dir.Roster(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, roster, 3)
	assert.Equal(t, []string{"Bruno", "Carla", "Davi"}, []string{roster[0].Name, roster[1].Name, roster[2].Name})
	assert.Equal(t, int64(31), roster[0].SubscriptionID)
	assert.Equal(t, 3, api.callCount("GetStudent"))

	_, ok := cache.Peek(querykey.Student(10))
	assert.True(t, ok, "resolved students are cached individually")

	_, hit, err = dir.Roster(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, api.callCount("GetStudent"))
}

func TestDirectoryRosterReusesCachedStudents(t *testing.T) {
	api := newReaderStub()
	dir, _ := newDirectory(api)
	_, _, err := dir.Student(context.Background(), 9)
	require.NoError(t, err)

	_, _, err = dir.Roster(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, api.callCount("GetStudent"), "student 9 is not fetched twice")
}

func TestDirectoryEmptyRosterSkipsStudentFetches(t *testing.T) {
	api := newReaderStub()
	dir, _ := newDirectory(api)

	roster, _, err := dir.Roster(context.Background(), 6)
	require.NoError(t, err)
	assert.NotNil(t, roster)
	assert.Empty(t, roster)
	assert.Zero(t, api.callCount("GetStudent"))
}

func TestDirectoryRosterFailureIsPartial(t *testing.T) {
	api := newReaderStub()
	api.failStudent = appErrors.Clone(appErrors.ErrNetwork, "down")
	dir, _ := newDirectory(api)

	_, _, err := dir.Roster(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBatchPartialFailure))
	assert.True(t, errors.Is(err, appErrors.ErrNetwork))
}

func TestDirectoryDetailNotFound(t *testing.T) {
	dir, _ := newDirectory(newReaderStub())
	_, _, err := dir.Professor(context.Background(), 99)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestDirectoryKeepsSessionsApart(t *testing.T) {
	api := newReaderStub()
	api.allowToken = "admin"
	caches := querycache.NewRegistry(session.Scope(session.NewContextProvider("")))
	dir := NewDirectoryService(api, caches, batch.Config{}, zap.NewNop())

	admin := session.WithToken(context.Background(), "admin")
	_, _, err := dir.Courses(admin)
	require.NoError(t, err)
	_, hit, err := dir.Courses(admin)
	require.NoError(t, err)
	assert.True(t, hit)

	courses, hit, err := dir.Courses(session.WithToken(context.Background(), "intruder"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	assert.False(t, hit)
	assert.Nil(t, courses)
	assert.Equal(t, 2, api.callCount("ListCourses"))

	_, _, err = dir.Courses(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	assert.Equal(t, 2, api.callCount("ListCourses"), "no credential means no upstream call")
	assert.Equal(t, 2, caches.Partitions())
}
