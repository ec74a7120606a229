package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/validator"
)

// SessionHandler exposes the presenter's view state.
type SessionHandler struct {
	classroom *service.ClassroomService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(classroom *service.ClassroomService) *SessionHandler {
	return &SessionHandler{classroom: classroom}
}

// GetSession godoc
// GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	response.Success(c, http.StatusOK, h.classroom.Session())
}

// SelectClass godoc
// PUT /api/v1/session/class
func (h *SessionHandler) SelectClass(c *gin.Context) {
	var req model.SelectClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, err := h.classroom.SelectClass(req.ClassID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SetSort godoc
// PUT /api/v1/session/sort
func (h *SessionHandler) SetSort(c *gin.Context) {
	var req model.SetSortRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	view, err := h.classroom.SetSort(req.Sort)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// OpenStudent godoc
// PUT /api/v1/session/active-student
// Opens the behavior selection view for a student of the current class.
func (h *SessionHandler) OpenStudent(c *gin.Context) {
	var req model.OpenStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	student, err := h.classroom.OpenStudent(req.StudentID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student, "behaviors": model.Catalog()})
}

// CloseStudent godoc
// DELETE /api/v1/session/active-student
func (h *SessionHandler) CloseStudent(c *gin.Context) {
	h.classroom.CloseStudent()
	response.Success(c, http.StatusOK, h.classroom.Session())
}

// DismissFeedback godoc
// DELETE /api/v1/session/feedback
func (h *SessionHandler) DismissFeedback(c *gin.Context) {
	if !h.classroom.DismissFeedback() {
		response.Fail(c, http.StatusNotFound, response.ErrNoFeedback)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"dismissed": true})
}
