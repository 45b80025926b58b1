package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/batch"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/querycache"
	"github.com/noah-isme/sma-adp-console/internal/querykey"
)

// directoryReader is the read side of the school API client.
type directoryReader interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListStudyClasses(ctx context.Context) ([]models.StudyClass, error)
	ListStudyClassesByCourse(ctx context.Context, courseID int64) ([]models.StudyClass, error)
	GetStudyClass(ctx context.Context, id int64) (*models.StudyClass, error)
	ListProfessors(ctx context.Context) ([]models.Professor, error)
	GetProfessor(ctx context.Context, id int64) (*models.Professor, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListSubscriptionsByClass(ctx context.Context, studyClassID int64) ([]models.Subscription, error)
}

// cacheScopes resolves the query cache partition of the caller.
type cacheScopes interface {
	For(ctx context.Context) (*querycache.Cache, error)
}

// DirectoryService serves every console read through the caller's query
// cache partition. Each method also reports whether the value came from cache.
type DirectoryService struct {
	api    directoryReader
	caches cacheScopes
	batch  batch.Config
	logger *zap.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(api directoryReader, caches cacheScopes, batchCfg batch.Config, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchCfg.Logger == nil {
		batchCfg.Logger = logger
	}
	return &DirectoryService{api: api, caches: caches, batch: batchCfg, logger: logger}
}

// Courses lists every course.
func (s *DirectoryService) Courses(ctx context.Context) ([]models.Course, bool, error) {
	return cached(ctx, s, querykey.Courses(), s.api.ListCourses)
}

// Course loads one course.
func (s *DirectoryService) Course(ctx context.Context, id int64) (models.Course, bool, error) {
	return cached(ctx, s, querykey.Course(id), byID(s.api.GetCourse, id))
}

// StudyClasses lists study classes, narrowed to one course when courseID > 0.
func (s *DirectoryService) StudyClasses(ctx context.Context, courseID int64) ([]models.StudyClass, bool, error) {
	if courseID <= 0 {
		return cached(ctx, s, querykey.StudyClasses(), s.api.ListStudyClasses)
	}
	return cached(ctx, s, querykey.StudyClassesByCourse(courseID), func(ctx context.Context) ([]models.StudyClass, error) {
		return s.api.ListStudyClassesByCourse(ctx, courseID)
	})
}

// StudyClass loads one study class.
func (s *DirectoryService) StudyClass(ctx context.Context, id int64) (models.StudyClass, bool, error) {
	return cached(ctx, s, querykey.StudyClass(id), byID(s.api.GetStudyClass, id))
}

// Professors lists every professor.
func (s *DirectoryService) Professors(ctx context.Context) ([]models.Professor, bool, error) {
	return cached(ctx, s, querykey.Professors(), s.api.ListProfessors)
}

// Professor loads one professor.
func (s *DirectoryService) Professor(ctx context.Context, id int64) (models.Professor, bool, error) {
	return cached(ctx, s, querykey.Professor(id), byID(s.api.GetProfessor, id))
}

// Students lists every student.
func (s *DirectoryService) Students(ctx context.Context) ([]models.Student, bool, error) {
	return cached(ctx, s, querykey.Students(), s.api.ListStudents)
}

// Student loads one student.
func (s *DirectoryService) Student(ctx context.Context, id int64) (models.Student, bool, error) {
	return cached(ctx, s, querykey.Student(id), byID(s.api.GetStudent, id))
}

// Subscriptions lists the subscriptions of one study class.
func (s *DirectoryService) Subscriptions(ctx context.Context, studyClassID int64) ([]models.Subscription, bool, error) {
	return cached(ctx, s, querykey.SubscriptionsByClass(studyClassID), func(ctx context.Context) ([]models.Subscription, error) {
		return s.api.ListSubscriptionsByClass(ctx, studyClassID)
	})
}

// Roster resolves the students subscribed to a study class. The subscription
// list is read first; its ids then key the resolved roster, which is built by
// the batch resolver from per-student cache reads. The boolean is true only
// when both steps were served from cache.
func (s *DirectoryService) Roster(ctx context.Context, studyClassID int64) ([]models.SubscribedStudent, bool, error) {
	subs, subsHit, err := s.Subscriptions(ctx, studyClassID)
	if err != nil {
		return nil, false, err
	}
	if len(subs) == 0 {
		return []models.SubscribedStudent{}, subsHit, nil
	}
	ids := make([]int64, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	roster, hit, err := cached(ctx, s, querykey.StudentsBySubscriptions(ids), func(ctx context.Context) ([]models.SubscribedStudent, error) {
		return batch.ResolveStudents(ctx, s.batch, subs, s.cachedStudent)
	})
	if err != nil {
		return nil, false, err
	}
	return roster, subsHit && hit, nil
}

func (s *DirectoryService) cachedStudent(ctx context.Context, id int64) (models.Student, error) {
	student, _, err := s.Student(ctx, id)
	return student, err
}

func cached[T any](ctx context.Context, s *DirectoryService, key querykey.Key, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	cache, err := s.caches.For(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return querycache.Get(ctx, cache, key, fetch)
}

// byID adapts a pointer-returning detail call to a cache fetch of the value.
func byID[T any](get func(ctx context.Context, id int64) (*T, error), id int64) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		v, err := get(ctx, id)
		if err != nil || v == nil {
			return zero, err
		}
		return *v, nil
	}
}
