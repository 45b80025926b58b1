// Package handler exposes the console over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/middleware"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

// directoryService is the cached read side used by the resource handlers.
type directoryService interface {
	Courses(ctx context.Context) ([]models.Course, bool, error)
	Course(ctx context.Context, id int64) (models.Course, bool, error)
	StudyClasses(ctx context.Context, courseID int64) ([]models.StudyClass, bool, error)
	StudyClass(ctx context.Context, id int64) (models.StudyClass, bool, error)
	Professors(ctx context.Context) ([]models.Professor, bool, error)
	Professor(ctx context.Context, id int64) (models.Professor, bool, error)
	Students(ctx context.Context) ([]models.Student, bool, error)
	Student(ctx context.Context, id int64) (models.Student, bool, error)
	Subscriptions(ctx context.Context, studyClassID int64) ([]models.Subscription, bool, error)
	Roster(ctx context.Context, studyClassID int64) ([]models.SubscribedStudent, bool, error)
}

// mutator runs writes and their cache effects.
type mutator interface {
	Mutate(ctx context.Context, op mutation.Operation, payload any) (any, error)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Validation("invalid path parameter", map[string]string{name: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		response.Error(c, appErrors.Validation("invalid query parameter", map[string]string{name: "must be a non-negative integer"}))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// read writes a cached read result with its cache_hit metadata.
func read[T any](c *gin.Context, data T, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, data, middleware.ExtractMeta(c))
}

// mutate runs op and writes the result with status.
func mutate(c *gin.Context, m mutator, op mutation.Operation, payload any, status int) {
	result, err := m.Mutate(c.Request.Context(), op, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, status, result, nil, nil)
}
