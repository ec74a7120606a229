package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/roster"
)

// ErrInvalidSnapshot is returned by Import when the uploaded document is not
// a valid roster. The current roster is left untouched.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ExportFilePrefix is the file name prefix of JSON exports.
const ExportFilePrefix = "Miss_Iong_Class_Data_"

// TransferService exports and imports the whole roster as a JSON document.
type TransferService struct {
	classroom *ClassroomService
	clock     clock.Clock
	log       zerolog.Logger
}

// NewTransferService creates a new TransferService.
func NewTransferService(classroom *ClassroomService, clk clock.Clock, log zerolog.Logger) *TransferService {
	return &TransferService{
		classroom: classroom,
		clock:     clk,
		log:       log.With().Str("component", "transfer").Logger(),
	}
}

// ExportFilename returns the download name for an export taken today (UTC).
func (s *TransferService) ExportFilename() string {
	return fmt.Sprintf("%s%s.txt", ExportFilePrefix, s.clock.Now().UTC().Format("2006-01-02"))
}

// Export renders every class as pretty-printed JSON.
func (s *TransferService) Export(_ context.Context) (string, []byte, error) {
	body, err := roster.Encode(s.classroom.Classes())
	if err != nil {
		return "", nil, fmt.Errorf("encode roster: %w", err)
	}
	return s.ExportFilename(), body, nil
}

// Import replaces the whole roster with the one in body and returns the
// number of classes imported.
func (s *TransferService) Import(ctx context.Context, body []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	classes, err := roster.Decode(body)
	if err != nil {
		s.log.Warn().Err(err).Int("bytes", len(body)).Msg("Import rejected")
		return 0, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	s.classroom.ReplaceAll(classes)
	return len(classes), nil
}
