package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/service"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

type exportService interface {
	Request(ctx context.Context, studyClassID int64, format export.Format) (*service.ExportJob, error)
	Get(id string) (*service.ExportJob, error)
	Open(id, token string) (*service.ExportFile, error)
}

// ExportHandler exposes roster export endpoints.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Request godoc
// @Summary Queue a roster export
// @Tags Exports
// @Produce json
// @Param id path int true "Study class ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 202 {object} response.Envelope
// @Router /study-classes/{id}/roster/exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Validation("invalid query parameter", map[string]string{"format": "must be one of csv pdf xlsx"}))
		return
	}
	job, err := h.exports.Request(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Get godoc
// @Summary Get export status
// @Tags Exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Export ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/{id}/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.exports.Open(c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.File.Close()

	info, err := file.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat export"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), file.ContentType, file.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Name),
	})
}
