package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// ResponseMeta collects metadata handlers attach to the response envelope.
type ResponseMeta struct {
	start    time.Time
	cacheHit *bool
}

// WithResponseMeta installs an empty ResponseMeta on every request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &ResponseMeta{start: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the response data came from the query cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := metaOf(c); meta != nil {
		meta.cacheHit = &hit
	}
}

// ExtractMeta renders the metadata for the envelope, or nil when none was
// recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaOf(c)
	if meta == nil || meta.cacheHit == nil {
		return nil
	}
	return map[string]interface{}{
		"cache_hit":          *meta.cacheHit,
		"processing_time_ms": time.Since(meta.start).Milliseconds(),
	}
}

func metaOf(c *gin.Context) *ResponseMeta {
	if c == nil {
		return nil
	}
	v, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := v.(*ResponseMeta)
	return meta
}
