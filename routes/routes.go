package routes

import (
	"review-workflow-api/config"
	"review-workflow-api/controllers"
	"review-workflow-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Options carries what the route guards need besides the controller.
type Options struct {
	DB        *gorm.DB
	JWTSecret []byte
	Workflow  *config.WorkflowHolder
}

func SetupRoutes(router *gin.Engine, ctl *controllers.ReviewWorkflowController, opts Options) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "Review Workflow API is running",
			})
		})

		rw := v1.Group("/review-workflow")
		rw.Use(middleware.AuthMiddleware(opts.DB, opts.JWTSecret))

		read := middleware.RequirePermission(opts.Workflow, config.PermissionRead)
		assign := middleware.RequirePermission(opts.Workflow, config.PermissionAssign)
		handle := middleware.RequirePermission(opts.Workflow, config.PermissionHandle)
		admin := middleware.RequirePermission(opts.Workflow, config.PermissionAdmin)

		// Requesters
		rw.POST("/assign", assign, ctl.Assign)
		rw.POST("/assign-multi-locale", assign, ctl.AssignMultiLocale)
		rw.POST("/bulk-assign", assign, ctl.BulkAssign)
		rw.PUT("/re-request/:id/:locale", assign, ctl.ReRequest)
		rw.GET("/assigned-by-me", assign, ctl.GetAssignedByMe)
		rw.PUT("/field-comments/:id/resolve", assign, ctl.ResolveFieldComment)

		// Reviewers
		rw.PUT("/approve/:id/:locale", handle, ctl.Approve)
		rw.PUT("/reject/:id/:locale", handle, ctl.Reject)
		rw.GET("/pending", handle, ctl.GetPending)
		rw.GET("/rejected", handle, ctl.GetRejected)
		rw.POST("/field-comments", handle, ctl.CreateFieldComment)
		rw.DELETE("/field-comments/:id", handle, ctl.DeleteFieldComment)

		// Shared reads
		rw.GET("/status/:contentType/:documentId/:locale", read, ctl.GetStatus)
		rw.POST("/status/batch/:contentType/:locale", read, ctl.BatchStatus)
		rw.GET("/publish-check/:contentType/:documentId/:locale", read, ctl.PublishCheck)
		rw.GET("/available-locales/:contentType/:documentId", read, ctl.AvailableLocales)
		rw.GET("/field-comments/:reviewId/:locale", read, ctl.ListFieldComments)
		rw.GET("/reviewers", read, ctl.GetReviewers)
		rw.GET("/config", read, ctl.GetConfig)

		rw.POST("/config/reload", admin, ctl.ReloadConfig)
	}
}
