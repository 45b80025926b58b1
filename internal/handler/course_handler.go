package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
)

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	directory directoryService
	mutations mutator
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(directory directoryService, mutations mutator) *CourseHandler {
	return &CourseHandler{directory: directory, mutations: mutations}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, hit, err := h.directory.Courses(c.Request.Context())
	read(c, courses, hit, err)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	course, hit, err := h.directory.Course(c.Request.Context(), id)
	read(c, course, hit, err)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	mutate(c, h.mutations, mutation.CreateCourse, req, http.StatusCreated)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	mutate(c, h.mutations, mutation.UpdateCourse, req, http.StatusOK)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	mutate(c, h.mutations, mutation.DeleteCourse, dto.DeleteCourseRequest{ID: id}, http.StatusNoContent)
}
