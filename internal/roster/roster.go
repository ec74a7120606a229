// Package roster holds the pure transforms over the class collection.
//
// Every function takes the current collection and returns a new one; the
// input slice and the classes and students inside it are never written to.
// Callers can therefore keep old values around (for rollback or comparison)
// without copying.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stemsi/classpoints-backend/internal/model"
)

var (
	ErrEmptyClassName = errors.New("class name is empty")
	ErrEmptyRoster    = errors.New("roster has no student names")
	ErrClassNotFound  = errors.New("class not found")
	ErrInvalidAvatar  = errors.New("avatar id out of range")
)

// Rand is the random source used for default avatars.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Clone returns a deep copy of classes.
func Clone(classes []model.ClassData) []model.ClassData {
	if classes == nil {
		return nil
	}
	out := make([]model.ClassData, len(classes))
	for i, c := range classes {
		out[i] = cloneClass(c)
	}
	return out
}

func cloneClass(c model.ClassData) model.ClassData {
	students := make([]model.Student, len(c.Students))
	copy(students, c.Students)
	c.Students = students
	return c
}

// FindClass returns the class with id classID.
func FindClass(classes []model.ClassData, classID string) (model.ClassData, bool) {
	for _, c := range classes {
		if c.ID == classID {
			return c, true
		}
	}
	return model.ClassData{}, false
}

// FindStudent returns the student with id studentID inside class classID.
func FindStudent(classes []model.ClassData, classID, studentID string) (model.Student, bool) {
	c, ok := FindClass(classes, classID)
	if !ok {
		return model.Student{}, false
	}
	for _, s := range c.Students {
		if s.ID == studentID {
			return s, true
		}
	}
	return model.Student{}, false
}

// ApplyBehavior adds behavior.Points to the student's total and to the
// counter matching its sign. A zero-point behavior changes only the (unchanged)
// total. ok is false when the class or student does not exist, in which case
// classes is returned as is.
func ApplyBehavior(classes []model.ClassData, classID, studentID string, behavior model.Behavior) ([]model.ClassData, model.Student, bool) {
	ci, si := indexOf(classes, classID, studentID)
	if ci < 0 || si < 0 {
		return classes, model.Student{}, false
	}

	next := make([]model.ClassData, len(classes))
	copy(next, classes)
	next[ci] = cloneClass(classes[ci])

	s := &next[ci].Students[si]
	magnitude := abs(behavior.Points)
	s.TotalScore += behavior.Points
	if behavior.IsPositive() {
		s.PosCount += magnitude
	} else {
		s.NegCount += magnitude
	}
	return next, *s, true
}

// SetAvatar changes the avatar of the student with id studentID in whichever
// class holds it.
func SetAvatar(classes []model.ClassData, studentID string, pokemonID int) ([]model.ClassData, model.Student, error) {
	if !model.ValidAvatar(pokemonID) {
		return classes, model.Student{}, ErrInvalidAvatar
	}
	for ci, c := range classes {
		for si, s := range c.Students {
			if s.ID != studentID {
				continue
			}
			next := make([]model.ClassData, len(classes))
			copy(next, classes)
			next[ci] = cloneClass(c)
			next[ci].Students[si].PokemonID = pokemonID
			return next, next[ci].Students[si], nil
		}
	}
	return classes, model.Student{}, fmt.Errorf("student %q: %w", studentID, ErrClassNotFound)
}

// ParseNames splits pasted text into trimmed, non-blank names.
func ParseNames(text string) []string {
	lines := strings.Split(text, "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if n := strings.TrimSpace(line); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// CreateClass appends a class built from name and one student per line of
// rosterText. Students are numbered 1..N in input order and get a random
// avatar. The class id is derived from now and made unique.
func CreateClass(classes []model.ClassData, name, rosterText string, now time.Time, rng Rand) ([]model.ClassData, model.ClassData, error) {
	return CreateClassFromNames(classes, name, ParseNames(rosterText), now, rng)
}

// CreateClassFromNames is CreateClass for an already split name list.
func CreateClassFromNames(classes []model.ClassData, name string, names []string, now time.Time, rng Rand) ([]model.ClassData, model.ClassData, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return classes, model.ClassData{}, ErrEmptyClassName
	}
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return classes, model.ClassData{}, ErrEmptyRoster
	}

	id := uniqueClassID(classes, fmt.Sprintf("custom_%d", now.UnixMilli()))
	class := model.ClassData{
		ID:       id,
		Name:     name,
		Students: make([]model.Student, len(cleaned)),
	}
	for i, n := range cleaned {
		class.Students[i] = model.Student{
			ID:            fmt.Sprintf("%s_%d", id, i+1),
			Name:          n,
			StudentNumber: i + 1,
			PokemonID:     RandomAvatar(rng),
		}
	}

	next := make([]model.ClassData, len(classes), len(classes)+1)
	copy(next, classes)
	next = append(next, class)
	return next, class, nil
}

// DeleteClass removes the class with id classID.
func DeleteClass(classes []model.ClassData, classID string) ([]model.ClassData, error) {
	next := make([]model.ClassData, 0, len(classes))
	found := false
	for _, c := range classes {
		if c.ID == classID {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		return classes, ErrClassNotFound
	}
	return next, nil
}

// Sorted returns the students in the requested order. The sort is stable,
// so ties keep their creation order. Unknown sort types fall back to ID_ASC.
func Sorted(students []model.Student, sortType model.SortType) []model.Student {
	out := make([]model.Student, len(students))
	copy(out, students)

	var less func(a, b model.Student) bool
	switch sortType {
	case model.SortScoreDesc:
		less = func(a, b model.Student) bool { return a.TotalScore > b.TotalScore }
	case model.SortScoreAsc:
		less = func(a, b model.Student) bool { return a.TotalScore < b.TotalScore }
	default:
		less = func(a, b model.Student) bool { return a.StudentNumber < b.StudentNumber }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// RandomAvatar draws an avatar id uniformly from 1..model.AvatarCount.
func RandomAvatar(rng Rand) int {
	return rng.Intn(model.AvatarCount) + 1
}

func uniqueClassID(classes []model.ClassData, base string) string {
	id := base
	for n := 2; ; n++ {
		if _, taken := FindClass(classes, id); !taken {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func indexOf(classes []model.ClassData, classID, studentID string) (int, int) {
	for ci, c := range classes {
		if c.ID != classID {
			continue
		}
		for si, s := range c.Students {
			if s.ID == studentID {
				return ci, si
			}
		}
		return ci, -1
	}
	return -1, -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
