package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-console/internal/querykey"
	"github.com/noah-isme/sma-adp-console/pkg/response"
)

type cacheInvalidator interface {
	Invalidate(key querykey.Key) int
}

type invalidateRequest struct {
	Key string `json:"key" binding:"required"`
}

// CacheHandler lets operators mark cached queries stale.
type CacheHandler struct {
	cache cacheInvalidator
}

// NewCacheHandler constructs CacheHandler.
func NewCacheHandler(cache cacheInvalidator) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Invalidate godoc
// @Summary Invalidate cached queries by key prefix
// @Description Keys are slash separated, for example studyClasses/byCourse/3.
// @Tags Cache
// @Accept json
// @Produce json
// @Param payload body invalidateRequest true "Key prefix"
// @Success 200 {object} response.Envelope
// @Router /cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if !bindJSON(c, &req) {
		return
	}
	key := querykey.Parse(req.Key)
	n := h.cache.Invalidate(key)
	response.OK(c, gin.H{"key": key.String(), "invalidated": n}, nil)
}
