package roster

import (
	"fmt"
	"strings"

	"github.com/stemsi/classpoints-backend/internal/model"
)

var seedClasses = []struct {
	name  string
	names []string
}{
	{"四乙 普通話", []string{"陳小明", "李嘉欣", "黃子軒", "張詩穎", "劉家豪", "王美琪", "吳浩然", "周曉彤"}},
	{"三乙 English", []string{"Ann", "Ben", "Chloe", "Daniel", "Emma", "Felix", "Grace", "Henry", "Ivy", "Jack"}},
}

// Seed returns the built-in demo roster used when nothing is stored yet or
// the stored snapshot cannot be read.
func Seed(rng Rand) []model.ClassData {
	classes := make([]model.ClassData, 0, len(seedClasses))
	for _, sc := range seedClasses {
		id := strings.Join(strings.Fields(sc.name), "_")
		c := model.ClassData{ID: id, Name: sc.name, Students: make([]model.Student, len(sc.names))}
		for i, n := range sc.names {
			c.Students[i] = model.Student{
				ID:            fmt.Sprintf("%s_%d", id, i+1),
				Name:          n,
				StudentNumber: i + 1,
				PokemonID:     RandomAvatar(rng),
			}
		}
		classes = append(classes, c)
	}
	return classes
}
