package model

// PickerPhase is the state of the random selection sequence.
type PickerPhase string

const (
	PickerIdle      PickerPhase = "idle"
	PickerRolling   PickerPhase = "rolling"
	PickerRevealing PickerPhase = "revealing"
)

// PickerStatus is a snapshot of the random picker for display.
type PickerStatus struct {
	Phase   PickerPhase `json:"phase"`
	Step    int         `json:"step"`
	Steps   int         `json:"steps"`
	Current *Student    `json:"current,omitempty"`
}

// Session is the presenter's view state.
type Session struct {
	SelectedClassID string    `json:"selectedClassId,omitempty"`
	Sort            SortType  `json:"sort"`
	ActiveStudentID string    `json:"activeStudentId,omitempty"`
	Feedback        *Feedback `json:"feedback,omitempty"`
}

// SessionView is the session enriched for the UI.
type SessionView struct {
	Session
	Class         *ClassSummary `json:"class,omitempty"`
	Students      []Student     `json:"students"`
	ActiveStudent *Student      `json:"activeStudent,omitempty"`
	Picker        PickerStatus  `json:"picker"`
}

// SelectClassRequest is the payload for choosing the current class.
type SelectClassRequest struct {
	ClassID string `json:"classId" binding:"required"`
}

// OpenStudentRequest opens the behavior selection view for a student.
type OpenStudentRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}
