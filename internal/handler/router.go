package handler

import "github.com/gin-gonic/gin"

// Handlers groups every route handler of the console.
type Handlers struct {
	Courses       *CourseHandler
	StudyClasses  *StudyClassHandler
	Professors    *ProfessorHandler
	Students      *StudentHandler
	Subscriptions *SubscriptionHandler
	Pages         *PageHandler
	Exports       *ExportHandler
	Cache         *CacheHandler
	Metrics       *MetricsHandler
}

// Register mounts the console routes under api. Download links carry their
// own signed token, so they are registered on open without the session
// middleware.
func Register(api *gin.RouterGroup, open *gin.RouterGroup, h Handlers) {
	if h.Courses != nil {
		api.GET("/courses", h.Courses.List)
		api.GET("/courses/:id", h.Courses.Get)
		api.POST("/courses", h.Courses.Create)
		api.PUT("/courses/:id", h.Courses.Update)
		api.DELETE("/courses/:id", h.Courses.Delete)
	}
	if h.StudyClasses != nil {
		api.GET("/study-classes", h.StudyClasses.List)
		api.GET("/study-classes/:id", h.StudyClasses.Get)
		api.GET("/study-classes/:id/students", h.StudyClasses.Roster)
		api.GET("/study-classes/:id/subscriptions", h.StudyClasses.Subscriptions)
		api.POST("/study-classes", h.StudyClasses.Create)
		api.PUT("/study-classes/:id/professor", h.StudyClasses.EnrollProfessor)
		api.DELETE("/study-classes/:id", h.StudyClasses.Delete)
	}
	if h.Professors != nil {
		api.GET("/professors", h.Professors.List)
		api.GET("/professors/:id", h.Professors.Get)
		api.POST("/professors", h.Professors.Create)
		api.PUT("/professors/:id", h.Professors.Update)
		api.DELETE("/professors/:id", h.Professors.Delete)
	}
	if h.Students != nil {
		api.GET("/students", h.Students.List)
		api.GET("/students/:id", h.Students.Get)
		api.POST("/students", h.Students.Create)
		api.PUT("/students/:id", h.Students.Update)
		api.DELETE("/students/:id", h.Students.Delete)
	}
	if h.Subscriptions != nil {
		api.POST("/subscriptions", h.Subscriptions.Create)
		api.DELETE("/subscriptions/:id", h.Subscriptions.Delete)
	}
	if h.Pages != nil {
		pages := api.Group("/pages")
		pages.POST("", h.Pages.Mount)
		pages.GET("/:id", h.Pages.Get)
		pages.POST("/:id/events", h.Pages.Apply)
		pages.GET("/:id/view", h.Pages.View)
		pages.DELETE("/:id", h.Pages.Unmount)
	}
	if h.Exports != nil {
		api.POST("/study-classes/:id/roster/exports", h.Exports.Request)
		api.GET("/exports/:id", h.Exports.Get)
		open.GET("/exports/:id/download", h.Exports.Download)
	}
	if h.Cache != nil {
		api.POST("/cache/invalidate", h.Cache.Invalidate)
	}
	if h.Metrics != nil {
		api.GET("/metrics/summary", h.Metrics.Summary)
	}
}
