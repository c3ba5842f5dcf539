package handler

import (
	"errors"
	"net/http"

	"github.com/diemthi/thpt-score-backend/internal/response"
	"github.com/diemthi/thpt-score-backend/internal/service"
	"github.com/diemthi/thpt-score-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// StudentHandler serves candidate score lookups and group rankings.
type StudentHandler struct {
	studentService *service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type studentScoresURI struct {
	SBD string `uri:"sbd" json:"sbd" binding:"required,len=8,numeric"`
}

type topGroupQuery struct {
	Limit int `form:"limit,default=10" json:"limit"`
}

// GetScores godoc
// GET /students/:sbd/scores
func (h *StudentHandler) GetScores(c *gin.Context) {
	var uri studentScoresURI
	if fields := validator.BindURI(c, &uri); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidSBD, fields)
		return
	}

	scores, err := h.studentService.GetScoresBySBD(c.Request.Context(), uri.SBD)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSBD):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidSBD)
		case errors.Is(err, service.ErrStudentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, scores)
}

// TopGroup godoc
// GET /students/top/group-{a|b|c|d}?limit=N
//
// Returns a handler bound to one subject group. Out-of-range limits are
// clamped by the service; only a non-numeric limit is rejected.
func (h *StudentHandler) TopGroup(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q topGroupQuery
		if fields := validator.BindQuery(c, &q); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidLimit, fields)
			return
		}

		top, err := h.studentService.GetTopGroup(c.Request.Context(), group, q.Limit)
		if err != nil {
			if errors.Is(err, service.ErrUnknownGroup) {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidGroup)
				return
			}
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		response.Success(c, http.StatusOK, gin.H{"students": top})
	}
}
