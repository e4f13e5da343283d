package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConfig handles GET /config.
func (ctl *ReviewWorkflowController) GetConfig(c *gin.Context) {
	wf := ctl.Workflow.Get()
	contentTypes := wf.ContentTypes
	if contentTypes == nil {
		contentTypes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"contentTypes": contentTypes}})
}

// ReloadConfig handles POST /config/reload.
func (ctl *ReviewWorkflowController) ReloadConfig(c *gin.Context) {
	if err := ctl.Workflow.Reload(); err != nil {
		respondError(c, "reload-config", err)
		return
	}
	ctl.Reviewers.Purge()
	ctl.GetConfig(c)
}

// GetReviewers handles GET /reviewers.
func (ctl *ReviewWorkflowController) GetReviewers(c *gin.Context) {
	users, err := ctl.Reviewers.Reviewers(c.Request.Context())
	if err != nil {
		respondError(c, "reviewers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}
