package handler

import (
	"net/http"

	"github.com/diemthi/thpt-score-backend/internal/response"
	"github.com/diemthi/thpt-score-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// SubjectHandler serves the subject list and score statistics.
type SubjectHandler struct {
	subjectService *service.SubjectService
}

// NewSubjectHandler creates a new SubjectHandler.
func NewSubjectHandler(subjectService *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// GetAll godoc
// GET /subjects
func (h *SubjectHandler) GetAll(c *gin.Context) {
	subjects, err := h.subjectService.GetAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// GetScoreLevelStatistics godoc
// GET /subjects/statistics/score-levels
func (h *SubjectHandler) GetScoreLevelStatistics(c *gin.Context) {
	stats, err := h.subjectService.GetScoreLevelStatistics(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// GetScoreDistribution godoc
// GET /subjects/statistics/score-distribution
func (h *SubjectHandler) GetScoreDistribution(c *gin.Context) {
	dist, err := h.subjectService.GetScoreDistribution(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"distribution": dist})
}
