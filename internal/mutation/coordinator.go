// Package mutation executes writes against the school API and keeps the query
// cache consistent with them. Every operation owns a declarative effect list
// that is applied, in order, only after the remote write succeeds.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/querycache"
	"github.com/noah-isme/sma-adp-console/internal/querykey"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// Writer is the subset of the API client used for mutations.
type Writer interface {
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, req dto.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	CreateStudyClass(ctx context.Context, req dto.CreateStudyClassRequest) (*models.StudyClass, error)
	EnrollProfessor(ctx context.Context, req dto.EnrollProfessorRequest) (*models.StudyClass, error)
	DeleteStudyClass(ctx context.Context, id int64) error
	CreateProfessor(ctx context.Context, req dto.CreateProfessorRequest) (*models.Professor, error)
	UpdateProfessor(ctx context.Context, req dto.UpdateProfessorRequest) (*models.Professor, error)
	DeleteProfessor(ctx context.Context, id int64) error
	CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	UpdateStudent(ctx context.Context, req dto.UpdateStudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
}

// Store is the partitioned query cache. Invalidate reaches every session's
// partition; For returns the caller's.
type Store interface {
	For(ctx context.Context) (*querycache.Cache, error)
	Invalidate(key querykey.Key) int
}

// Recorder receives mutation outcomes.
type Recorder interface {
	ObserveMutation(operation string, duration time.Duration, err error)
}

type operation struct {
	execute func(ctx context.Context, payload any) (any, error)
	effects func(payload, result any) []Effect
}

// Coordinator runs mutations and applies their cache effects.
type Coordinator struct {
	writer   Writer
	cache    Store
	validate *validator.Validate
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	ops      map[Operation]operation
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches metrics.
func WithRecorder(recorder Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// WithClock overrides time.Now, used to stamp subscription dates.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a coordinator writing through writer and cache.
func New(writer Writer, cache Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		writer: writer,
		cache:  cache,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.validate = newValidator()
	c.ops = c.operations()
	return c
}

// Mutate validates payload, performs op and, on success, applies its effects.
// On failure nothing in the cache changes and the error is returned as is.
func (c *Coordinator) Mutate(ctx context.Context, op Operation, payload any) (any, error) {
	def, ok := c.ops[op]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown mutation %q", op))
	}
	start := c.now()
	result, err := c.run(ctx, def, payload)
	if c.recorder != nil {
		c.recorder.ObserveMutation(string(op), c.now().Sub(start), err)
	}
	if err != nil {
		c.logger.Info("mutation failed", zap.String("operation", string(op)), zap.Error(err))
		return nil, err
	}

	effects := def.effects(payload, result)
	c.apply(ctx, effects)
	c.logger.Debug("mutation applied", zap.String("operation", string(op)), zap.Int("effects", len(effects)))
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, def operation, payload any) (any, error) {
	if err := c.check(payload); err != nil {
		return nil, err
	}
	if c.writer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "mutation writer not configured")
	}
	return def.execute(ctx, payload)
}

func (c *Coordinator) check(payload any) error {
	if payload == nil {
		return appErrors.Clone(appErrors.ErrValidation, "payload is required")
	}
	err := c.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return appErrors.Clone(appErrors.ErrValidation, "payload must be an object")
	}
	return validationError(err)
}

// apply runs effects in order. Writes land in the caller's partition and are
// invalidated everywhere else so other sessions refetch with their own
// credential.
func (c *Coordinator) apply(ctx context.Context, effects []Effect) {
	if c.cache == nil {
		return
	}
	for _, effect := range effects {
		switch effect.Kind {
		case EffectInvalidate:
			c.cache.Invalidate(effect.Key)
		case EffectWrite:
			c.cache.Invalidate(effect.Key)
			own, err := c.cache.For(ctx)
			if err != nil {
				c.logger.Warn("mutation write skipped", zap.String("key", effect.Key.String()), zap.Error(err))
				continue
			}
			own.Write(effect.Key, effect.Data)
		}
	}
}

// Do runs Mutate and asserts the result to T. Deletes yield the zero T.
func Do[T any](ctx context.Context, c *Coordinator, op Operation, payload any) (T, error) {
	var zero T
	result, err := c.Mutate(ctx, op, payload)
	if err != nil || result == nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("%s returned %T", op, result))
	}
	return typed, nil
}

// payloadAs accepts both T and *T.
func payloadAs[T any](op Operation, payload any) (T, error) {
	switch v := payload.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unexpected payload %T for %s", payload, op))
}
