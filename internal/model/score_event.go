package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoreEvent is one applied behavior, kept in the audit ledger.
type ScoreEvent struct {
	ID         uuid.UUID `json:"id"`
	ClassID    string    `json:"classId"`
	StudentID  string    `json:"studentId"`
	Label      string    `json:"label"`
	LabelEn    string    `json:"labelEn"`
	Points     int       `json:"points"`
	TotalAfter int       `json:"totalAfter"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ScoreUpdate is the payload of a score.updated event.
type ScoreUpdate struct {
	Event   ScoreEvent `json:"event"`
	Student Student    `json:"student"`
}
