package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
)

// StudyClassHandler exposes study class endpoints.
type StudyClassHandler struct {
	directory directoryService
	mutations mutator
}

// NewStudyClassHandler constructs StudyClassHandler.
func NewStudyClassHandler(directory directoryService, mutations mutator) *StudyClassHandler {
	return &StudyClassHandler{directory: directory, mutations: mutations}
}

// List godoc
// @Summary List study classes
// @Description Lists every study class, or only those of one course when courseId is given.
// @Tags StudyClasses
// @Produce json
// @Param courseId query int false "Course filter"
// @Success 200 {object} response.Envelope
// @Router /study-classes [get]
func (h *StudyClassHandler) List(c *gin.Context) {
	courseID, ok := queryID(c, "courseId")
	if !ok {
		return
	}
	classes, hit, err := h.directory.StudyClasses(c.Request.Context(), courseID)
	read(c, classes, hit, err)
}

// Get godoc
// @Summary Get study class detail
// @Tags StudyClasses
// @Produce json
// @Param id path int true "Study class ID"
// @Success 200 {object} response.Envelope
// @Router /study-classes/{id} [get]
func (h *StudyClassHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, hit, err := h.directory.StudyClass(c.Request.Context(), id)
	read(c, class, hit, err)
}

// Roster godoc
// @Summary List students subscribed to a study class
// @Tags StudyClasses
// @Produce json
// @Param id path int true "Study class ID"
// @Success 200 {object} response.Envelope
// @Router /study-classes/{id}/students [get]
func (h *StudyClassHandler) Roster(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	roster, hit, err := h.directory.Roster(c.Request.Context(), id)
	read(c, roster, hit, err)
}

// Subscriptions godoc
// @Summary List subscriptions of a study class
// @Tags StudyClasses
// @Produce json
// @Param id path int true "Study class ID"
// @Success 200 {object} response.Envelope
// @Router /study-classes/{id}/subscriptions [get]
func (h *StudyClassHandler) Subscriptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	subs, hit, err := h.directory.Subscriptions(c.Request.Context(), id)
	read(c, subs, hit, err)
}

// Create godoc
// @Summary Create study class
// @Tags StudyClasses
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudyClassRequest true "Study class payload"
// @Success 201 {object} response.Envelope
// @Router /study-classes [post]
func (h *StudyClassHandler) Create(c *gin.Context) {
	var req dto.CreateStudyClassRequest
	if !bindJSON(c, &req) {
		return
	}
	mutate(c, h.mutations, mutation.CreateStudyClass, req, http.StatusCreated)
}

// EnrollProfessor godoc
// @Summary Assign a professor to a study class
// @Tags StudyClasses
// @Accept json
// @Produce json
// @Param id path int true "Study class ID"
// @Param payload body dto.EnrollProfessorRequest true "Professor assignment"
// @Success 200 {object} response.Envelope
// @Router /study-classes/{id}/professor [put]
func (h *StudyClassHandler) EnrollProfessor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EnrollProfessorRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StudyClassID = id
	mutate(c, h.mutations, mutation.EnrollProfessor, req, http.StatusOK)
}

// Delete godoc
// @Summary Delete study class
// @Tags StudyClasses
// @Param id path int true "Study class ID"
// @Param courseId query int false "Course the class belongs to"
// @Success 204
// @Router /study-classes/{id} [delete]
func (h *StudyClassHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	courseID, ok := queryID(c, "courseId")
	if !ok {
		return
	}
	mutate(c, h.mutations, mutation.DeleteStudyClass, dto.DeleteStudyClassRequest{ID: id, CourseID: courseID}, http.StatusNoContent)
}
