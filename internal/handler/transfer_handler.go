package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/response"
	"github.com/stemsi/classpoints-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransferHandler handles roster export and import.
type TransferHandler struct {
	transfer       *service.TransferService
	sheets         *service.SpreadsheetService
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfer *service.TransferService, sheets *service.SpreadsheetService, maxUploadBytes int64, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		transfer:       transfer,
		sheets:         sheets,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "transfer_handler").Logger(),
	}
}

// Export godoc
// GET /api/v1/export
// Downloads every class as Miss_Iong_Class_Data_YYYY-MM-DD.txt.
func (h *TransferHandler) Export(c *gin.Context) {
	name, body, err := h.transfer.Export(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Attachment(c, name, "text/plain; charset=utf-8", body)
}

// ExportXLSX godoc
// GET /api/v1/export.xlsx
// Downloads every class as an Excel workbook, one sheet per class.
func (h *TransferHandler) ExportXLSX(c *gin.Context) {
	name, body, err := h.sheets.ExportWorkbook()
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Attachment(c, name, xlsxContentType, body)
}

// Import godoc
// POST /api/v1/import (raw body or multipart field "file")
// Replaces the whole roster with an exported document. An invalid document
// changes nothing.
func (h *TransferHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	body, err := h.readUpload(c)
	if err != nil {
		if isTooLarge(err) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	n, err := h.transfer.Import(c.Request.Context(), body)
	if err != nil {
		failFromError(c, err)
		return
	}
	h.log.Info().Int("classes", n).Str("ip", c.ClientIP()).Msg("Roster imported")
	response.Success(c, http.StatusOK, gin.H{"imported": n})
}

func (h *TransferHandler) readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}
