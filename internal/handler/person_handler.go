package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/dto"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
)

// ProfessorHandler exposes professor endpoints.
type ProfessorHandler struct {
	directory directoryService
	mutations mutator
}

// NewProfessorHandler constructs ProfessorHandler.
func NewProfessorHandler(directory directoryService, mutations mutator) *ProfessorHandler {
	return &ProfessorHandler{directory: directory, mutations: mutations}
}

// List godoc
// @Summary List professors
// @Tags Professors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *ProfessorHandler) List(c *gin.Context) {
	professors, hit, err := h.directory.Professors(c.Request.Context())
	read(c, professors, hit, err)
}

// Get godoc
// @Summary Get professor detail
// @Tags Professors
// @Produce json
// @Param id path int true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [get]
func (h *ProfessorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	professor, hit, err := h.directory.Professor(c.Request.Context(), id)
	read(c, professor, hit, err)
}

// Create godoc
// @Summary Register professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param payload body dto.CreateProfessorRequest true "Professor payload"
// @Success 201 {object} response.Envelope
// @Router /professors [post]
func (h *ProfessorHandler) Create(c *gin.Context) {
	var req dto.CreateProfessorRequest
	if !bindJSON(c, &req) {
		return
	}
	mutate(c, h.mutations, mutation.CreateProfessor, req, http.StatusCreated)
}

// Update godoc
// @Summary Update professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param id path int true "Professor ID"
// @Param payload body dto.UpdateProfessorRequest true "Professor payload"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [put]
func (h *ProfessorHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProfessorRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	mutate(c, h.mutations, mutation.UpdateProfessor, req, http.StatusOK)
}

// Delete godoc
// @Summary Delete professor
// @Tags Professors
// @Param id path int true "Professor ID"
// @Success 204
// @Router /professors/{id} [delete]
func (h *ProfessorHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	mutate(c, h.mutations, mutation.DeleteProfessor, dto.DeleteProfessorRequest{ID: id}, http.StatusNoContent)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	directory directoryService
	mutations mutator
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(directory directoryService, mutations mutator) *StudentHandler {
	return &StudentHandler{directory: directory, mutations: mutations}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, hit, err := h.directory.Students(c.Request.Context())
	read(c, students, hit, err)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	student, hit, err := h.directory.Student(c.Request.Context(), id)
	read(c, student, hit, err)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	mutate(c, h.mutations, mutation.CreateStudent, req, http.StatusCreated)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	mutate(c, h.mutations, mutation.UpdateStudent, req, http.StatusOK)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path int true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	mutate(c, h.mutations, mutation.DeleteStudent, dto.DeleteStudentRequest{ID: id}, http.StatusNoContent)
}
