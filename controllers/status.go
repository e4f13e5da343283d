package controllers

import (
	"errors"
	"net/http"

	"review-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// BatchStatus handles POST /status/batch/:contentType/:locale.
func (ctl *ReviewWorkflowController) BatchStatus(c *gin.Context) {
	var req struct {
		DocumentIDs []string `json:"documentIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	statuses, err := ctl.Statuses.StatusesFor(c.Request.Context(), c.Param("contentType"), c.Param("locale"), req.DocumentIDs)
	if err != nil {
		respondError(c, "batch-status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": statuses})
}

// PublishCheck handles GET /publish-check/:contentType/:documentId/:locale.
// A blocked verdict is a normal 200 response; 503 means no decision could be made.
func (ctl *ReviewWorkflowController) PublishCheck(c *gin.Context) {
	verdict, err := ctl.Gate.Evaluate(c.Request.Context(), c.Param("contentType"), c.Param("documentId"), c.Param("locale"))
	if err != nil {
		services.ObserveFailure("publish-check", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to evaluate publish gate", "allowed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"allowed": verdict.Allowed(),
		"reason":  verdict,
		"message": verdict.Message(),
	}})
}

// AvailableLocales handles GET /available-locales/:contentType/:documentId.
func (ctl *ReviewWorkflowController) AvailableLocales(c *gin.Context) {
	locales, err := ctl.Documents.DocumentLocales(c.Request.Context(), c.Param("contentType"), c.Param("documentId"))
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found", "kind": services.KindNotFound})
			return
		}
		respondError(c, "available-locales", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": locales})
}
