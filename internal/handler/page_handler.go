package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/selection"
	"github.com/noah-isme/sma-adp-console/internal/service"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

type pageService interface {
	Mount(kind service.PageKind) (service.PageSnapshot, error)
	Get(id string) (service.PageSnapshot, error)
	Apply(id string, events ...selection.Event) (service.PageSnapshot, error)
	Unmount(id string)
	View(ctx context.Context, id string, pageSize int) (service.PageView, error)
}

type mountPageRequest struct {
	Kind service.PageKind `json:"kind" binding:"required,oneof=subscriptions enrollment"`
}

type applyEventsRequest struct {
	Events []selection.Event `json:"events" binding:"required,min=1,dive"`
}

// PageHandler drives the cascading pickers of the subscription and
// enrollment pages.
type PageHandler struct {
	pages pageService
}

// NewPageHandler constructs PageHandler.
func NewPageHandler(pages pageService) *PageHandler {
	return &PageHandler{pages: pages}
}

// Mount godoc
// @Summary Open a page session
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body mountPageRequest true "Page kind"
// @Success 201 {object} response.Envelope
// @Router /pages [post]
func (h *PageHandler) Mount(c *gin.Context) {
	var req mountPageRequest
	if !bindJSON(c, &req) {
		return
	}
	snapshot, err := h.pages.Mount(req.Kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, snapshot)
}

// Get godoc
// @Summary Get page selection state
// @Tags Pages
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} response.Envelope
// @Router /pages/{id} [get]
func (h *PageHandler) Get(c *gin.Context) {
	snapshot, err := h.pages.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snapshot, nil)
}

// Apply godoc
// @Summary Apply selection events
// @Description Events run in order. Selecting a slot clears every slot after it.
// @Tags Pages
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param payload body applyEventsRequest true "Events"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/events [post]
func (h *PageHandler) Apply(c *gin.Context) {
	var req applyEventsRequest
	if !bindJSON(c, &req) {
		return
	}
	snapshot, err := h.pages.Apply(c.Param("id"), req.Events...)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snapshot, nil)
}

// View godoc
// @Summary Load the data behind every enabled picker
// @Tags Pages
// @Produce json
// @Param id path string true "Page ID"
// @Param pageSize query int false "Roster page size"
// @Success 200 {object} response.Envelope
// @Router /pages/{id}/view [get]
func (h *PageHandler) View(c *gin.Context) {
	pageSize := 0
	if raw := c.Query("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(c, appErrors.Validation("invalid query parameter", map[string]string{"pageSize": "must be a positive integer"}))
			return
		}
		pageSize = n
	}
	view, err := h.pages.View(c.Request.Context(), c.Param("id"), pageSize)
	read(c, view, view.CacheHit, err)
}

// Unmount godoc
// @Summary Close a page session
// @Tags Pages
// @Param id path string true "Page ID"
// @Success 204
// @Router /pages/{id} [delete]
func (h *PageHandler) Unmount(c *gin.Context) {
	h.pages.Unmount(c.Param("id"))
	c.Status(http.StatusNoContent)
}
