package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/service"
)

// PickerHandler starts and reports the random picker.
type PickerHandler struct {
	classroom *service.ClassroomService
}

// NewPickerHandler creates a new PickerHandler.
func NewPickerHandler(classroom *service.ClassroomService) *PickerHandler {
	return &PickerHandler{classroom: classroom}
}

// Roll godoc
// POST /api/v1/picker/roll
// Starts the random picker over the current class. Progress is pushed on the
// live stream; the call returns immediately.
func (h *PickerHandler) Roll(c *gin.Context) {
	if err := h.classroom.StartPicker(); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, h.classroom.PickerStatus())
}

// Status godoc
// GET /api/v1/picker
func (h *PickerHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.classroom.PickerStatus())
}
