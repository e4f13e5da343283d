package controllers

import (
	"net/http"

	"review-workflow-api/models"
	"review-workflow-api/services"
	"review-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

type assignRequest struct {
	AssignedContentType string `json:"assignedContentType"`
	AssignedDocumentID  string `json:"assignedDocumentId"`
	Locale              string `json:"locale"`
	AssignedTo          int    `json:"assignedTo"`
	Comments            string `json:"comments"`
}

type assignMultiLocaleRequest struct {
	assignRequest
	Locales []string `json:"locales"`
}

type bulkAssignRequest struct {
	AssignedContentType string                    `json:"assignedContentType"`
	AssignedTo          int                       `json:"assignedTo"`
	Comments            string                    `json:"comments"`
	Documents           []services.DocumentLocale `json:"documents"`
}

// Assign handles POST /assign.
func (ctl *ReviewWorkflowController) Assign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	review, err := ctl.Reviews.Assign(c.Request.Context(), services.AssignInput{
		ContentType: utils.SanitizeInput(req.AssignedContentType),
		DocumentID:  utils.SanitizeInput(req.AssignedDocumentID),
		Locale:      utils.SanitizeInput(req.Locale),
		ReviewerID:  req.AssignedTo,
		RequesterID: userID,
		Note:        utils.SanitizeInput(req.Comments),
	})
	if err != nil {
		respondError(c, "assign", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// AssignMultiLocale handles POST /assign-multi-locale.
func (ctl *ReviewWorkflowController) AssignMultiLocale(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req assignMultiLocaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := ctl.Reviews.AssignMultiLocale(c.Request.Context(), services.AssignInput{
		ContentType: utils.SanitizeInput(req.AssignedContentType),
		DocumentID:  utils.SanitizeInput(req.AssignedDocumentID),
		ReviewerID:  req.AssignedTo,
		RequesterID: userID,
		Note:        utils.SanitizeInput(req.Comments),
	}, utils.SanitizeAll(req.Locales))
	if err != nil {
		respondError(c, "assign-multi-locale", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// BulkAssign handles POST /bulk-assign.
func (ctl *ReviewWorkflowController) BulkAssign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := ctl.Reviews.BulkAssign(c.Request.Context(), services.BulkAssignInput{
		ContentType: utils.SanitizeInput(req.AssignedContentType),
		ReviewerID:  req.AssignedTo,
		RequesterID: userID,
		Note:        utils.SanitizeInput(req.Comments),
		Documents:   req.Documents,
	})
	if err != nil {
		respondError(c, "bulk-assign", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Approve handles PUT /approve/:id/:locale.
func (ctl *ReviewWorkflowController) Approve(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	review, err := ctl.Reviews.Approve(c.Request.Context(), c.Param("id"), c.Param("locale"), userID, utils.SanitizeInput(req.Comment))
	if err != nil {
		respondError(c, "approve", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// Reject handles PUT /reject/:id/:locale.
func (ctl *ReviewWorkflowController) Reject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		RejectionReason string `json:"rejectionReason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	review, err := ctl.Reviews.Reject(c.Request.Context(), c.Param("id"), c.Param("locale"), userID, utils.SanitizeInput(req.RejectionReason))
	if err != nil {
		respondError(c, "reject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// ReRequest handles PUT /re-request/:id/:locale.
func (ctl *ReviewWorkflowController) ReRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	review, err := ctl.Reviews.ReRequest(c.Request.Context(), c.Param("id"), c.Param("locale"), userID, utils.SanitizeInput(req.Comment))
	if err != nil {
		respondError(c, "re-request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// GetStatus handles GET /status/:contentType/:documentId/:locale.
func (ctl *ReviewWorkflowController) GetStatus(c *gin.Context) {
	review, err := ctl.Reviews.GetCurrent(c.Request.Context(), c.Param("contentType"), c.Param("documentId"), c.Param("locale"))
	if err != nil {
		respondError(c, "status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": review})
}

// GetPending handles GET /pending.
func (ctl *ReviewWorkflowController) GetPending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reviews, err := ctl.Reviews.ListPending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "pending", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews, "total": len(reviews)})
}

// GetRejected handles GET /rejected.
func (ctl *ReviewWorkflowController) GetRejected(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reviews, err := ctl.Reviews.ListRejected(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "rejected", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews, "total": len(reviews)})
}

// GetAssignedByMe handles GET /assigned-by-me. An optional ?status= filter
// narrows the result to pending or rejected reviews.
func (ctl *ReviewWorkflowController) GetAssignedByMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter := ""
	if raw := c.Query("status"); raw != "" {
		status, known := utils.CanonicalReviewStatus(raw)
		if !known || status == models.ReviewStatusApproved {
			badRequest(c, "Invalid status filter")
			return
		}
		filter = status
	}

	reviews, err := ctl.Reviews.ListAssignedBy(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "assigned-by-me", err)
		return
	}
	if filter != "" {
		filtered := reviews[:0]
		for _, r := range reviews {
			if r.Status == filter {
				filtered = append(filtered, r)
			}
		}
		reviews = filtered
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews, "total": len(reviews)})
}
