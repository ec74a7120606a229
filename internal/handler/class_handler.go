package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/validator"
)

// ClassHandler handles class creation, lookup and deletion.
type ClassHandler struct {
	classroom      *service.ClassroomService
	sheets         *service.SpreadsheetService
	maxUploadBytes int64
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classroom *service.ClassroomService, sheets *service.SpreadsheetService, maxUploadBytes int64) *ClassHandler {
	return &ClassHandler{classroom: classroom, sheets: sheets, maxUploadBytes: maxUploadBytes}
}

// ListClasses godoc
// GET /api/v1/classes
// Lists every class with its student count.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"classes": h.classroom.ListClasses()})
}

// CreateClass godoc
// POST /api/v1/classes
// Creates a class from a name and a newline separated roster, then selects it.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.classroom.CreateClass(req.Name, req.Roster)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// ImportClassXLSX godoc
// POST /api/v1/classes/import-xlsx (multipart: name, file)
// Creates a class from the first sheet of an Excel workbook.
func (h *ClassHandler) ImportClassXLSX(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(fh.Filename, ".xlsx")
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer f.Close()

	class, err := h.sheets.ImportClass(name, f)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// GetClass godoc
// GET /api/v1/classes/:id?sort=SCORE_DESC
// Returns one class with its students in the requested order.
func (h *ClassHandler) GetClass(c *gin.Context) {
	class, err := h.classroom.GetClass(c.Param("id"), model.SortType(c.Query("sort")))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// DeleteClass godoc
// DELETE /api/v1/classes/:id  body: {"confirm": true}
// Deletes a class. Without confirmation nothing happens and 409 is returned.
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	var req model.DeleteClassRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, validator.TranslateErrors(err))
		return
	}
	if c.Query("confirm") == "true" {
		req.Confirm = true
	}

	if err := h.classroom.DeleteClass(c.Param("id"), req.Confirm); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
