package model

import "time"

// Feedback is the transient notification shown after a score update.
type Feedback struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"classId"`
	Student   Student   `json:"student"`
	Behavior  Behavior  `json:"behavior"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
