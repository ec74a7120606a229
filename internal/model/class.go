package model

// ClassData is one roster. Students are kept in creation order.
type ClassData struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Students []Student `json:"students"`
}

// ClassSummary is the list view of a class.
type ClassSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"studentCount"`
}

// Summary returns the list view of c.
func (c ClassData) Summary() ClassSummary {
	return ClassSummary{ID: c.ID, Name: c.Name, StudentCount: len(c.Students)}
}

// CreateClassRequest is the payload for creating a class from pasted names,
// one student per line.
type CreateClassRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Roster string `json:"roster" binding:"required"`
}

// DeleteClassRequest must carry an explicit confirmation.
type DeleteClassRequest struct {
	Confirm bool `json:"confirm"`
}
