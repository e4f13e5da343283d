package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"review-workflow-api/config"
	"review-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// ReviewWorkflowController serves the review workflow REST surface.
type ReviewWorkflowController struct {
	Reviews       *services.ReviewService
	FieldComments *services.FieldCommentService
	Statuses      *services.StatusService
	Gate          *services.PublishGate
	Reviewers     *services.ReviewerDirectory
	Documents     services.DocumentStore
	Workflow      *config.WorkflowHolder
}

var errorStatus = map[services.ErrorKind]int{
	services.KindValidation:    http.StatusBadRequest,
	services.KindConflict:      http.StatusConflict,
	services.KindAuthorization: http.StatusForbidden,
	services.KindInvalidState:  http.StatusConflict,
	services.KindBlocked:       http.StatusUnprocessableEntity,
	services.KindNotFound:      http.StatusNotFound,
}

// respondError writes workflow errors as 4xx with their kind and hides
// infrastructure errors behind a 500.
func respondError(c *gin.Context, action string, err error) {
	services.ObserveFailure(action, err)

	var we *services.WorkflowError
	if errors.As(err, &we) {
		c.JSON(errorStatus[we.Kind], gin.H{"error": we.Message, "kind": we.Kind})
		return
	}

	log.Printf("%s failed: %v", action, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "kind": services.KindValidation})
}

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		switch t := v.(type) {
		case int:
			return t, t > 0
		case int64:
			return int(t), t > 0
		case float64:
			return int(t), t > 0
		}
	}
	return 0, false
}

// currentUser aborts with 401 when the auth middleware did not set a user.
func currentUser(c *gin.Context) (int, bool) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User context missing"})
	}
	return userID, ok
}

func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return value, true
}
