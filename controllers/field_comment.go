package controllers

import (
	"net/http"

	"review-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

// CreateFieldComment handles POST /field-comments.
func (ctl *ReviewWorkflowController) CreateFieldComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		ReviewDocumentID string `json:"reviewDocumentId"`
		Content          string `json:"content"`
		FieldName        string `json:"fieldName"`
		Locale           string `json:"locale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	comment, err := ctl.FieldComments.AddFieldComment(c.Request.Context(),
		utils.SanitizeInput(req.ReviewDocumentID),
		utils.SanitizeInput(req.Locale),
		utils.SanitizeInput(req.FieldName),
		userID,
		utils.SanitizeInput(req.Content),
	)
	if err != nil {
		respondError(c, "add-field-comment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": comment})
}

// ListFieldComments handles GET /field-comments/:reviewId/:locale.
func (ctl *ReviewWorkflowController) ListFieldComments(c *gin.Context) {
	summary, err := ctl.FieldComments.ListFieldComments(c.Request.Context(), c.Param("reviewId"), c.Param("locale"))
	if err != nil {
		respondError(c, "list-field-comments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// ResolveFieldComment handles PUT /field-comments/:id/resolve.
func (ctl *ReviewWorkflowController) ResolveFieldComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "id")
	if !ok {
		return
	}

	comment, err := ctl.FieldComments.ResolveFieldComment(c.Request.Context(), commentID, userID)
	if err != nil {
		respondError(c, "resolve-field-comment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comment})
}

// DeleteFieldComment handles DELETE /field-comments/:id.
func (ctl *ReviewWorkflowController) DeleteFieldComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.FieldComments.DeleteFieldComment(c.Request.Context(), commentID, userID); err != nil {
		respondError(c, "delete-field-comment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
