package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
)

// respondSuccess writes the terminal success envelope
func respondSuccess(c *gin.Context, result any) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"result": result,
	})
}

// bindJSON decodes the request body into payload. Typed decode failures, such
// as a non-numeric task id, keep their kind; anything else is a bad request.
func bindJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			apierrors.Respond(c, apiErr)
		} else {
			apierrors.BadRequest(c, "Invalid request body")
		}
		return false
	}
	return true
}
