package model

// Student is one learner within one class.
//
// PosCount and NegCount accumulate point magnitudes, not event counts: a +10
// behavior adds 10 to PosCount.
type Student struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StudentNumber int    `json:"studentNumber"`
	PokemonID     int    `json:"pokemonId"`
	TotalScore    int    `json:"totalScore"`
	PosCount      int    `json:"posCount"`
	NegCount      int    `json:"negCount"`
}

// SetAvatarRequest is the payload for reassigning a student's avatar.
type SetAvatarRequest struct {
	PokemonID int `json:"pokemonId" binding:"required,min=1,max=500"`
}

// ApplyBehaviorRequest is the payload for applying a behavior (catalog or custom).
type ApplyBehaviorRequest struct {
	Label   string `json:"label" binding:"required,max=100"`
	LabelEn string `json:"labelEn" binding:"max=100"`
	Points  *int   `json:"points" binding:"required"`
}

// ManualPointsRequest is the payload for an ad-hoc point entry.
type ManualPointsRequest struct {
	Points *int `json:"points" binding:"required"`
}
