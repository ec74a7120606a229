package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/picker"
	"github.com/stemsi/classpoints-backend/internal/repository"
	"github.com/stemsi/classpoints-backend/internal/sound"
	"github.com/stemsi/classpoints-backend/internal/worker"
)

type recordingPlayer struct {
	mu   sync.Mutex
	cues []sound.Cue
}

func (p *recordingPlayer) Play(_ context.Context, cue sound.Cue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cues = append(p.cues, cue)
	return nil
}

func (p *recordingPlayer) names() []sound.Name {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sound.Name, len(p.cues))
	for i, c := range p.cues {
		out[i] = c.Name
	}
	return out
}

type fixture struct {
	clock     *clock.Fake
	store     *repository.MemoryStore
	snapshots *worker.SnapshotWorker
	recorder  *worker.LedgerWorker
	ledger    *repository.MemoryLedger
	bus       *events.LocalBus
	player    *recordingPlayer
	classroom *ClassroomService
	transfer  *TransferService
	sheets    *SpreadsheetService
}

func newFixture() *fixture {
	log := zerolog.Nop()
	f := &fixture{
		clock:  clock.NewFake(time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)),
		store:  repository.NewMemoryStore(),
		ledger: repository.NewMemoryLedger(),
		bus:    events.NewLocalBus(log),
		player: &recordingPlayer{},
	}
	f.snapshots = worker.NewSnapshotWorker(f.store, log)
	f.recorder = worker.NewLedgerWorker(f.ledger, log)
	pick := picker.New(f.clock, rand.New(rand.NewSource(11)), f.player, f.bus, log)
	f.classroom = NewClassroomService(ClassroomDeps{
		Store:     f.store,
		Persister: f.snapshots,
		Recorder:  f.recorder,
		Ledger:    f.ledger,
		Bus:       f.bus,
		Player:    f.player,
		Picker:    pick,
		Clock:     f.clock,
		Rand:      rand.New(rand.NewSource(3)),
	}, log)
	f.transfer = NewTransferService(f.classroom, f.clock, log)
	f.sheets = NewSpreadsheetService(f.classroom, f.clock, log)
	return f
}

// loaded returns a fixture holding the seed roster with the first class
// selected.
func loaded() *fixture {
	f := newFixture()
	if err := f.classroom.Load(context.Background()); err != nil {
		panic(err)
	}
	classes := f.classroom.Classes()
	if _, err := f.classroom.SelectClass(classes[0].ID); err != nil {
		panic(err)
	}
	return f
}
