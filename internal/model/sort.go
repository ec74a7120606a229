package model

// SortType selects the display order of a class's students.
type SortType string

const (
	SortIDAsc     SortType = "ID_ASC"
	SortScoreDesc SortType = "SCORE_DESC"
	SortScoreAsc  SortType = "SCORE_ASC"
)

// Valid reports whether s is one of the known sort modes.
func (s SortType) Valid() bool {
	switch s {
	case SortIDAsc, SortScoreDesc, SortScoreAsc:
		return true
	}
	return false
}

// SetSortRequest is the payload for changing the session sort mode.
type SetSortRequest struct {
	Sort SortType `json:"sort" binding:"required,sorttype"`
}
