package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classpoints-backend/internal/picker"
	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/roster"
	"github.com/stemsi/classpoints-backend/internal/service"
)

// failFromError maps domain errors to API errors; anything unknown is a 500.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrClassNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
	case errors.Is(err, service.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrStudentNotFound)
	case errors.Is(err, roster.ErrEmptyClassName):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyClassName)
	case errors.Is(err, roster.ErrEmptyRoster), errors.Is(err, picker.ErrEmptyRoster):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrEmptyRoster)
	case errors.Is(err, roster.ErrInvalidAvatar):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAvatar)
	case errors.Is(err, service.ErrInvalidSort):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSort)
	case errors.Is(err, service.ErrNoClassSelected):
		response.Fail(c, http.StatusConflict, response.ErrNoClassSelected)
	case errors.Is(err, service.ErrConfirmationRequired):
		response.Fail(c, http.StatusConflict, response.ErrConfirmationRequired)
	case errors.Is(err, picker.ErrAlreadyRunning):
		response.Fail(c, http.StatusConflict, response.ErrPickerBusy)
	case errors.Is(err, service.ErrInvalidSnapshot):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSnapshot)
	case errors.Is(err, service.ErrInvalidWorkbook):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidWorkbook)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// isTooLarge reports a body rejected by http.MaxBytesReader.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
