// Package picker runs the random student selection sequence:
//
//	idle -> rolling(1..Steps) -> revealing -> idle
//
// The winner is drawn once before the first tick. Each tick shows a random
// decoy and plays the roll cue; after the last tick the success cue plays
// and the winner is revealed after RevealDelay. A running sequence cannot be
// cancelled or restarted.
package picker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/model"
	"github.com/stemsi/classpoints-backend/internal/sound"
)

const (
	TickInterval = 120 * time.Millisecond
	Steps        = 20
	RevealDelay  = 800 * time.Millisecond
)

var (
	ErrEmptyRoster    = errors.New("no students to pick from")
	ErrAlreadyRunning = errors.New("picker already running")
)

// Rand draws uniform indices. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// RevealFunc receives the winner once the sequence completes.
type RevealFunc func(classID string, winner model.Student)

// TickPayload is published with every picker event.
type TickPayload struct {
	ClassID string            `json:"classId"`
	Phase   model.PickerPhase `json:"phase"`
	Step    int               `json:"step"`
	Steps   int               `json:"steps"`
	Student *model.Student    `json:"student,omitempty"`
}

// Picker is safe for concurrent use; timer callbacks and Start may race.
type Picker struct {
	mu    sync.Mutex
	clock clock.Clock
	rng   Rand
	sound *sound.SafePlayer
	bus   events.Publisher
	log   zerolog.Logger

	phase    model.PickerPhase
	step     int
	classID  string
	students []model.Student
	current  *model.Student
	winner   model.Student
	onReveal RevealFunc
}

// New creates an idle picker.
func New(clk clock.Clock, rng Rand, player sound.Player, bus events.Publisher, log zerolog.Logger) *Picker {
	if player == nil {
		player = sound.Nop{}
	}
	return &Picker{
		clock: clk,
		rng:   rng,
		sound: sound.Safe(player, log),
		bus:   bus,
		log:   log.With().Str("component", "picker").Logger(),
		phase: model.PickerIdle,
	}
}

// Start begins a sequence over students. onReveal may be nil.
func (p *Picker) Start(classID string, students []model.Student, onReveal RevealFunc) error {
	if len(students) == 0 {
		return ErrEmptyRoster
	}

	p.mu.Lock()
	if p.phase != model.PickerIdle {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.students = append([]model.Student(nil), students...)
	p.classID = classID
	p.winner = p.students[p.rng.Intn(len(p.students))]
	p.phase = model.PickerRolling
	p.step = 0
	p.current = nil
	p.onReveal = onReveal
	payload := p.payloadLocked()
	p.clock.AfterFunc(TickInterval, p.tick)
	p.mu.Unlock()

	p.log.Debug().Str("class_id", classID).Int("candidates", len(students)).Msg("Picker started")
	p.publish(events.PickerStarted, payload)
	return nil
}

// Status reports the current phase for display. The winner is not exposed
// until the reveal.
func (p *Picker) Status() model.PickerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := model.PickerStatus{Phase: p.phase, Step: p.step, Steps: Steps}
	if p.current != nil {
		cur := *p.current
		status.Current = &cur
	}
	return status
}

func (p *Picker) tick() {
	p.mu.Lock()
	if p.phase != model.PickerRolling {
		p.mu.Unlock()
		return
	}
	p.step++
	decoy := p.students[p.rng.Intn(len(p.students))]
	p.current = &decoy
	last := p.step >= Steps
	tick := p.payloadLocked()

	var revealing TickPayload
	if last {
		p.phase = model.PickerRevealing
		revealing = p.payloadLocked()
		p.clock.AfterFunc(RevealDelay, p.reveal)
	} else {
		p.clock.AfterFunc(TickInterval, p.tick)
	}
	p.mu.Unlock()

	p.publish(events.PickerTick, tick)
	p.sound.Fire(context.Background(), sound.CueFor(sound.Roll))
	if last {
		p.sound.Fire(context.Background(), sound.CueFor(sound.Success))
		p.publish(events.PickerRevealing, revealing)
	}
}

func (p *Picker) reveal() {
	p.mu.Lock()
	if p.phase != model.PickerRevealing {
		p.mu.Unlock()
		return
	}
	winner := p.winner
	classID := p.classID
	onReveal := p.onReveal
	p.phase = model.PickerIdle
	p.step = 0
	p.current = nil
	p.students = nil
	p.onReveal = nil
	p.mu.Unlock()

	p.log.Info().Str("class_id", classID).Str("student_id", winner.ID).Msg("Picker revealed")
	p.publish(events.PickerRevealed, TickPayload{
		ClassID: classID,
		Phase:   model.PickerIdle,
		Step:    Steps,
		Steps:   Steps,
		Student: &winner,
	})
	if onReveal != nil {
		onReveal(classID, winner)
	}
}

func (p *Picker) payloadLocked() TickPayload {
	out := TickPayload{ClassID: p.classID, Phase: p.phase, Step: p.step, Steps: Steps}
	if p.current != nil {
		cur := *p.current
		out.Student = &cur
	}
	return out
}

func (p *Picker) publish(t events.Type, payload TickPayload) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(events.New(t, p.clock.Now(), payload))
}
