package service

import (
	"context"
	"sync"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/session"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// readerStub serves a small in-memory school and counts calls per method.
type readerStub struct {
	mu            sync.Mutex
	calls         map[string]int
	courses       []models.Course
	classes       []models.StudyClass
	professors    []models.Professor
	students      map[int64]models.Student
	subscriptions map[int64][]models.Subscription
	failStudent   error
	allowToken    string
}

func newReaderStub() *readerStub {
	professor := int64(2)
	return &readerStub{
		calls:   make(map[string]int),
		courses: []models.Course{{ID: 1, Name: "Math"}, {ID: 2, Name: "Physics"}},
		classes: []models.StudyClass{
			{ID: 4, ClassCode: "MAT-1", Year: 2026, Semester: 1, CourseID: 1},
			{ID: 5, ClassCode: "MAT-2", Year: 2026, Semester: 2, CourseID: 1, ProfessorID: &professor},
			{ID: 6, ClassCode: "PHY-1", Year: 2026, Semester: 1, CourseID: 2},
		},
		professors: []models.Professor{{ID: 2, Name: "Ada", Email: "ada@school.test"}},
		students: map[int64]models.Student{
			9:  {ID: 9, Name: "Bruno", Email: "bruno@school.test"},
			10: {ID: 10, Name: "Carla", Email: "carla@school.test"},
			11: {ID: 11, Name: "Davi", Email: "davi@school.test"},
		},
		subscriptions: map[int64][]models.Subscription{
			4: {
				{ID: 31, StudentID: 9, StudyClassID: 4},
				{ID: 32, StudentID: 10, StudyClassID: 4},
				{ID: 33, StudentID: 11, StudyClassID: 4},
			},
		},
	}
}

func (r *readerStub) count(name string) {
	r.mu.Lock()
	r.calls[name]++
	r.mu.Unlock()
}

func (r *readerStub) callCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *readerStub) ListCourses(ctx context.Context) ([]models.Course, error) {
	r.count("ListCourses")
	if r.allowToken != "" && session.TokenFromContext(ctx) != r.allowToken {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token rejected")
	}
	return append([]models.Course(nil), r.courses...), nil
}

func (r *readerStub) GetCourse(_ context.Context, id int64) (*models.Course, error) {
	r.count("GetCourse")
	for _, c := range r.courses {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (r *readerStub) ListStudyClasses(context.Context) ([]models.StudyClass, error) {
	r.count("ListStudyClasses")
	return append([]models.StudyClass(nil), r.classes...), nil
}

func (r *readerStub) ListStudyClassesByCourse(_ context.Context, courseID int64) ([]models.StudyClass, error) {
	r.count("ListStudyClassesByCourse")
	out := make([]models.StudyClass, 0)
	for _, c := range r.classes {
		if c.CourseID == courseID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *readerStub) GetStudyClass(_ context.Context, id int64) (*models.StudyClass, error) {
	r.count("GetStudyClass")
	for _, c := range r.classes {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (r *readerStub) ListProfessors(context.Context) ([]models.Professor, error) {
	r.count("ListProfessors")
	return append([]models.Professor(nil), r.professors...), nil
}

func (r *readerStub) GetProfessor(_ context.Context, id int64) (*models.Professor, error) {
	r.count("GetProfessor")
	for _, p := range r.professors {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (r *readerStub) ListStudents(context.Context) ([]models.Student, error) {
	r.count("ListStudents")
	out := make([]models.Student, 0, len(r.students))
	for _, id := range []int64{9, 10, 11} {
		out = append(out, r.students[id])
	}
	return out, nil
}

func (r *readerStub) GetStudent(_ context.Context, id int64) (*models.Student, error) {
	r.count("GetStudent")
	if r.failStudent != nil {
		return nil, r.failStudent
	}
	s, ok := r.students[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &s, nil
}

func (r *readerStub) ListSubscriptionsByClass(_ context.Context, studyClassID int64) ([]models.Subscription, error) {
	r.count("ListSubscriptionsByClass")
	return append([]models.Subscription{}, r.subscriptions[studyClassID]...), nil
}
