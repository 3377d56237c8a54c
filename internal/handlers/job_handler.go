package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/ordino-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns worker statistics and the time of the last intent sweep
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}
