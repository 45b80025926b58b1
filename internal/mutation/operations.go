package mutation

import (
	"context"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/querykey"
)

// Operation names a mutation.
type Operation string

const (
	CreateCourse       Operation = "createCourse"
	UpdateCourse       Operation = "updateCourse"
	DeleteCourse       Operation = "deleteCourse"
	CreateStudyClass   Operation = "createStudyClass"
	EnrollProfessor    Operation = "enrollProfessor"
	DeleteStudyClass   Operation = "deleteStudyClass"
	CreateProfessor    Operation = "createProfessor"
	UpdateProfessor    Operation = "updateProfessor"
	DeleteProfessor    Operation = "deleteProfessor"
	CreateStudent      Operation = "createStudent"
	UpdateStudent      Operation = "updateStudent"
	DeleteStudent      Operation = "deleteStudent"
	CreateSubscription Operation = "createSubscription"
	DeleteSubscription Operation = "deleteSubscription"
)

// EffectKind is what an effect does to the cache.
type EffectKind string

const (
	EffectInvalidate EffectKind = "invalidate"
	EffectWrite      EffectKind = "write"
)

// Effect is one cache change triggered by a successful mutation.
type Effect struct {
	Kind EffectKind
	Key  querykey.Key
	Data any
}

func invalidate(key querykey.Key) Effect {
	return Effect{Kind: EffectInvalidate, Key: key}
}

func write(key querykey.Key, data any) Effect {
	return Effect{Kind: EffectWrite, Key: key, Data: data}
}

// Effects returns the cache effects op produces for payload and result. It
// is exported so the effect table can be inspected without a remote call.
func (c *Coordinator) Effects(op Operation, payload, result any) []Effect {
	def, ok := c.ops[op]
	if !ok {
		return nil
	}
	return def.effects(payload, result)
}

// operations is the effect table. Invalidations always come before writes so
// that a prefix invalidation never marks a freshly written entry stale.
func (c *Coordinator) operations() map[Operation]operation {
	return map[Operation]operation{
		CreateCourse: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.CreateCourseRequest](CreateCourse, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.CreateCourse(ctx, req)
			},
			effects: func(any, any) []Effect {
				return []Effect{invalidate(querykey.Courses())}
			},
		},
		UpdateCourse: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.UpdateCourseRequest](UpdateCourse, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.UpdateCourse(ctx, req)
			},
			effects: func(_ any, result any) []Effect {
				effects := []Effect{invalidate(querykey.Courses())}
				if course, ok := result.(*models.Course); ok && course != nil {
					effects = append(effects, write(querykey.Course(course.ID), *course))
				}
				return effects
			},
		},
		DeleteCourse: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.DeleteCourseRequest](DeleteCourse, payload)
				if err != nil {
					return nil, err
				}
				return nil, c.writer.DeleteCourse(ctx, req.ID)
			},
			effects: func(any, any) []Effect {
				return []Effect{invalidate(querykey.Courses()), invalidate(querykey.StudyClasses())}
			},
		},
		CreateStudyClass: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.CreateStudyClassRequest](CreateStudyClass, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.CreateStudyClass(ctx, req)
			},
			effects: func(payload, result any) []Effect {
				effects := []Effect{invalidate(querykey.StudyClasses())}
				if class, ok := result.(*models.StudyClass); ok && class != nil {
					effects = append(effects, invalidate(querykey.StudyClassesByCourse(class.CourseID)))
				}
				return effects
			},
		},
		EnrollProfessor: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.EnrollProfessorRequest](EnrollProfessor, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.EnrollProfessor(ctx, req)
			},
			effects: func(_ any, result any) []Effect {
				class, ok := result.(*models.StudyClass)
				// An empty reply carries no course, so every class list and
				// the detail go stale instead.
				if !ok || class == nil || class.CourseID == 0 {
					return []Effect{invalidate(querykey.StudyClasses())}
				}
				return []Effect{
					invalidate(querykey.StudyClasses()),
					invalidate(querykey.StudyClassesByCourse(class.CourseID)),
					write(querykey.StudyClass(class.ID), *class),
				}
			},
		},
		DeleteStudyClass: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.DeleteStudyClassRequest](DeleteStudyClass, payload)
				if err != nil {
					return nil, err
				}
				return nil, c.writer.DeleteStudyClass(ctx, req.ID)
			},
			effects: func(payload, _ any) []Effect {
				effects := []Effect{invalidate(querykey.StudyClasses())}
				if req, err := payloadAs[dto.DeleteStudyClassRequest](DeleteStudyClass, payload); err == nil {
					if req.CourseID > 0 {
						effects = append(effects, invalidate(querykey.StudyClassesByCourse(req.CourseID)))
					}
					effects = append(effects, invalidate(querykey.SubscriptionsByClass(req.ID)))
				}
				return effects
			},
		},
		CreateProfessor: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.CreateProfessorRequest](CreateProfessor, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.CreateProfessor(ctx, req)
			},
			effects: func(any, any) []Effect {
				return []Effect{invalidate(querykey.Professors())}
			},
		},
		UpdateProfessor: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.UpdateProfessorRequest](UpdateProfessor, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.UpdateProfessor(ctx, req)
			},
			effects: func(_ any, result any) []Effect {
				effects := []Effect{invalidate(querykey.Professors())}
				if professor, ok := result.(*models.Professor); ok && professor != nil {
					effects = append(effects, write(querykey.Professor(professor.ID), *professor))
				}
				return effects
			},
		},
		DeleteProfessor: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.DeleteProfessorRequest](DeleteProfessor, payload)
				if err != nil {
					return nil, err
				}
				return nil, c.writer.DeleteProfessor(ctx, req.ID)
			},
			effects: func(any, any) []Effect {
				return []Effect{invalidate(querykey.Professors()), invalidate(querykey.StudyClasses())}
			},
		},
		CreateStudent: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.CreateStudentRequest](CreateStudent, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.CreateStudent(ctx, req)
			},
			effects: func(any, any) []Effect {
				return []Effect{invalidate(querykey.Students())}
			},
		},
		UpdateStudent: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.UpdateStudentRequest](UpdateStudent, payload)
				if err != nil {
					return nil, err
				}
				return c.writer.UpdateStudent(ctx, req)
			},
			effects: func(_ any, result any) []Effect {
				effects := []Effect{
					invalidate(querykey.Students()),
					invalidate(querykey.StudentsBySubscriptionsAll()),
				}
				if student, ok := result.(*models.Student); ok && student != nil {
					effects = append(effects, write(querykey.Student(student.ID), *student))
				}
				return effects
			},
		},
		DeleteStudent: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.DeleteStudentRequest](DeleteStudent, payload)
				if err != nil {
					return nil, err
				}
				return nil, c.writer.DeleteStudent(ctx, req.ID)
			},
			effects: func(any, any) []Effect {
				return []Effect{
					invalidate(querykey.Students()),
					invalidate(querykey.StudentsBySubscriptionsAll()),
					invalidate(querykey.Subscriptions()),
				}
			},
		},
		CreateSubscription: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.CreateSubscriptionRequest](CreateSubscription, payload)
				if err != nil {
					return nil, err
				}
				if req.Date.IsZero() {
					req.Date = c.now().UTC()
				}
				return c.writer.CreateSubscription(ctx, req)
			},
			effects: func(payload, result any) []Effect {
				if sub, ok := result.(*models.Subscription); ok && sub != nil && sub.StudyClassID > 0 {
					return []Effect{invalidate(querykey.SubscriptionsByClass(sub.StudyClassID))}
				}
				if req, err := payloadAs[dto.CreateSubscriptionRequest](CreateSubscription, payload); err == nil {
					return []Effect{invalidate(querykey.SubscriptionsByClass(req.StudyClassID))}
				}
				return []Effect{invalidate(querykey.SubscriptionsByClassAll())}
			},
		},
		DeleteSubscription: {
			execute: func(ctx context.Context, payload any) (any, error) {
				req, err := payloadAs[dto.DeleteSubscriptionRequest](DeleteSubscription, payload)
				if err != nil {
					return nil, err
				}
				return nil, c.writer.DeleteSubscription(ctx, req.ID)
			},
			effects: func(payload, _ any) []Effect {
				req, err := payloadAs[dto.DeleteSubscriptionRequest](DeleteSubscription, payload)
				if err != nil || req.StudyClassID == 0 {
					return []Effect{invalidate(querykey.SubscriptionsByClassAll())}
				}
				return []Effect{invalidate(querykey.SubscriptionsByClass(req.StudyClassID))}
			},
		},
	}
}
