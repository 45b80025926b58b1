// Package response writes the console's JSON envelope.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/models"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/middleware/requestid"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON sends data with optional pagination and metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta map[string]interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Pagination: pagination, Meta: meta})
}

// OK sends a 200 response.
func OK(c *gin.Context, data interface{}, meta map[string]interface{}) {
	JSON(c, http.StatusOK, data, nil, meta)
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil, nil)
}

// Accepted sends a 202 response for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data, nil, nil)
}

// Error converts err to the taxonomy and sends it with the request id.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	var meta map[string]interface{}
	if id := requestid.Value(c); id != "" {
		meta = map[string]interface{}{"request_id": id}
	}
	c.AbortWithStatusJSON(appErr.Status, Envelope{Error: appErr, Meta: meta})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
