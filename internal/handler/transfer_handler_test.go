package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Miss_Iong_Class_Data_2026-05-04.txt"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[\n  {"), "export is a pretty-printed bare array")

	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Len(t, raw, len(h.classroom.Classes()))
}

func TestExportXLSX(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), len(h.classroom.Classes()))
}

func TestImport_RawBody(t *testing.T) {
	h := newHarness(t)
	doc := `[{"id":"c1","name":"Only","students":[{"id":"s1","name":"Ann","studentNumber":1,"pokemonId":7,"totalScore":4,"posCount":4,"negCount":0}]}]`

	w := h.do(http.MethodPost, "/api/v1/import", doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	classes := h.classroom.Classes()
	require.Len(t, classes, 1)
	assert.Equal(t, 4, classes[0].Students[0].TotalScore)
	assert.Empty(t, h.classroom.Session().SelectedClassID)
}

func TestImport_Multipart(t *testing.T) {
	h := newHarness(t)
	export := h.do(http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, export.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "backup.txt")
	require.NoError(t, err)
	_, err = part.Write(export.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestImport_InvalidLeavesRosterAlone(t *testing.T) {
	h := newHarness(t)
	before := h.classroom.Classes()

	w := h.do(http.MethodPost, "/api/v1/import", "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "INVALID_SNAPSHOT", env.Error.Code)
	assert.NotEmpty(t, env.Error.Message)
	assert.Equal(t, before, h.classroom.Classes())
}

func TestImport_TooLarge(t *testing.T) {
	h := newHarness(t)
	huge := "[" + strings.Repeat(" ", testUploadLimit+1) + "]"

	w := h.do(http.MethodPost, "/api/v1/import", huge)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, w))
}
