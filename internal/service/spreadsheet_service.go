package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/model"
)

// ErrInvalidWorkbook is returned when an uploaded workbook cannot be read.
var ErrInvalidWorkbook = errors.New("invalid workbook")

var workbookHeader = []interface{}{"No", "Name", "Avatar", "Total", "Positive", "Negative"}

// SpreadsheetService exports the roster to Excel and creates classes from
// uploaded workbooks.
type SpreadsheetService struct {
	classroom *ClassroomService
	clock     clock.Clock
	log       zerolog.Logger
}

// NewSpreadsheetService creates a new SpreadsheetService.
func NewSpreadsheetService(classroom *ClassroomService, clk clock.Clock, log zerolog.Logger) *SpreadsheetService {
	return &SpreadsheetService{
		classroom: classroom,
		clock:     clk,
		log:       log.With().Str("component", "spreadsheet").Logger(),
	}
}

// ExportWorkbook writes one sheet per class, students in roster order.
func (s *SpreadsheetService) ExportWorkbook() (string, []byte, error) {
	classes := s.classroom.Classes()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Error().Err(err).Msg("Close workbook")
		}
	}()

	used := map[string]bool{}
	first := f.GetSheetName(0)
	for i, c := range classes {
		sheet := sheetName(c.Name, used)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return "", nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", nil, fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
			return "", nil, err
		}
		for j, st := range c.Students {
			row := []interface{}{st.StudentNumber, st.Name, st.PokemonID, st.TotalScore, st.PosCount, st.NegCount}
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return "", nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("write workbook: %w", err)
	}
	name := fmt.Sprintf("%s%s.xlsx", ExportFilePrefix, s.clock.Now().UTC().Format("2006-01-02"))
	return name, buf.Bytes(), nil
}

// ImportClass creates a class named className from the first sheet of the
// workbook in r. The first row is a header. Names come from the column
// headed "Name" (or 姓名) when there is one, otherwise from column A.
func (s *SpreadsheetService) ImportClass(className string, r io.Reader) (model.ClassData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.ClassData{}, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Error().Err(err).Msg("Close workbook")
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return model.ClassData{}, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return model.ClassData{}, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidWorkbook, sheet, err)
	}

	names := namesFromRows(rows)
	s.log.Info().Str("sheet", sheet).Int("names", len(names)).Msg("Workbook parsed")
	return s.classroom.CreateClassFromNames(className, names)
}

func namesFromRows(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	col := 0
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, "name") || h == "姓名" {
			col = i
			break
		}
	}

	names := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		if n := strings.TrimSpace(row[col]); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// sheetName turns a class name into a valid worksheet name, unique
// case-insensitively among used.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	// Excel rejects names that start or end with an apostrophe.
	clean = strings.Trim(truncateRunes(strings.Trim(clean, "'"), 31), "' ")
	if clean == "" {
		clean = "Class"
	}

	candidate := clean
	for n := 2; sheetNameTaken(candidate, used); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = strings.TrimRight(truncateRunes(clean, 31-len(suffix)), "' ") + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// sheetNameTaken reports whether name is used or reserved by Excel.
func sheetNameTaken(name string, used map[string]bool) bool {
	return used[strings.ToLower(name)] || strings.EqualFold(name, "History")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
