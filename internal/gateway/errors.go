package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/student"
	"teacherdesk/internal/worklog"
)

// fail writes the response for a store error. Backend failures become 502
// with the backend's status echoed.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apiclient.ErrRequestFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           err.Error(),
			"upstream_status": apiclient.StatusCode(err),
		})
	case errors.Is(err, worklog.ErrInvalidDate),
		errors.Is(err, student.ErrMissingID),
		errors.Is(err, student.ErrEmptyImport):
		badRequest(c, err)
	case errors.Is(err, student.ErrNotLoaded):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, errors.New("id must be an integer"))
		return 0, false
	}
	return id, true
}
