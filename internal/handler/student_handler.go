package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/validator"
)

const defaultHistoryLimit = 50

// StudentHandler applies points and edits individual students.
type StudentHandler struct {
	classroom *service.ClassroomService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(classroom *service.ClassroomService) *StudentHandler {
	return &StudentHandler{classroom: classroom}
}

// ApplyBehavior godoc
// POST /api/v1/students/:student_id/behaviors
// Applies a behavior to a student of the current class. A student outside
// the current class is ignored: 200 with applied=false.
func (h *StudentHandler) ApplyBehavior(c *gin.Context) {
	var req model.ApplyBehaviorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	behavior := model.Behavior{Label: req.Label, LabelEn: req.LabelEn, Points: *req.Points}

	student, applied := h.classroom.ApplyBehavior(c.Request.Context(), c.Param("student_id"), behavior)
	h.respondApplied(c, student, applied)
}

// ApplyManualPoints godoc
// POST /api/v1/students/:student_id/manual
func (h *StudentHandler) ApplyManualPoints(c *gin.Context) {
	var req model.ManualPointsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, applied := h.classroom.ApplyManualPoints(c.Request.Context(), c.Param("student_id"), *req.Points)
	h.respondApplied(c, student, applied)
}

func (h *StudentHandler) respondApplied(c *gin.Context, student model.Student, applied bool) {
	if !applied {
		response.Success(c, http.StatusOK, gin.H{"applied": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applied": true, "student": student})
}

// SetAvatar godoc
// PUT /api/v1/students/:student_id/avatar
func (h *StudentHandler) SetAvatar(c *gin.Context) {
	var req model.SetAvatarRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	student, err := h.classroom.SetAvatar(c.Param("student_id"), req.PokemonID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student, "spriteUrl": model.SpriteURL(student.PokemonID)})
}

// GetHistory godoc
// GET /api/v1/students/:student_id/history?limit=50
// Returns the newest ledger entries for a student.
func (h *StudentHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"limit": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	history, err := h.classroom.History(c.Request.Context(), c.Param("student_id"), limit)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}
