package roster

import (
	"errors"
	"fmt"

	"github.com/stemsi/classpoints-backend/internal/model"
)

// ErrInvalidRoster wraps every structural problem found by Validate.
var ErrInvalidRoster = errors.New("invalid roster")

// Validate checks the structural rules a snapshot must satisfy before it
// may replace the current collection.
func Validate(classes []model.ClassData) error {
	seenClass := make(map[string]bool, len(classes))
	for i, c := range classes {
		if c.ID == "" {
			return fmt.Errorf("%w: class #%d has no id", ErrInvalidRoster, i+1)
		}
		if seenClass[c.ID] {
			return fmt.Errorf("%w: duplicate class id %q", ErrInvalidRoster, c.ID)
		}
		seenClass[c.ID] = true

		seenStudent := make(map[string]bool, len(c.Students))
		for _, s := range c.Students {
			switch {
			case s.ID == "":
				return fmt.Errorf("%w: class %q has a student without id", ErrInvalidRoster, c.ID)
			case seenStudent[s.ID]:
				return fmt.Errorf("%w: duplicate student id %q in class %q", ErrInvalidRoster, s.ID, c.ID)
			case s.PosCount < 0 || s.NegCount < 0:
				return fmt.Errorf("%w: student %q has a negative counter", ErrInvalidRoster, s.ID)
			case !model.ValidAvatar(s.PokemonID):
				return fmt.Errorf("%w: student %q avatar %d out of range", ErrInvalidRoster, s.ID, s.PokemonID)
			}
			seenStudent[s.ID] = true
		}
	}
	return nil
}

// Normalize replaces nil student lists with empty ones so the collection
// serializes the same way it was exported.
func Normalize(classes []model.ClassData) []model.ClassData {
	if classes == nil {
		return []model.ClassData{}
	}
	for i := range classes {
		if classes[i].Students == nil {
			classes[i].Students = []model.Student{}
		}
	}
	return classes
}
