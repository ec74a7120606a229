package sound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/events"
)

type failingPlayer struct{ calls int }

func (f *failingPlayer) Play(context.Context, Cue) error {
	f.calls++
	return errors.New("autoplay denied")
}

type panickingPlayer struct{}

func (panickingPlayer) Play(context.Context, Cue) error { panic("device gone") }

func TestForScore(t *testing.T) {
	assert.Equal(t, ScoreUp, ForScore(true).Name)
	assert.Equal(t, 0.7, ForScore(true).Volume)
	assert.Equal(t, ScoreDown, ForScore(false).Name)
	assert.Equal(t, 0.5, ForScore(false).Volume)
	assert.Equal(t, 0.2, CueFor(Roll).Volume)
}

func TestSafePlayer_SwallowsErrorsAndPanics(t *testing.T) {
	failing := &failingPlayer{}
	p := Safe(failing, zerolog.Nop())

	assert.NoError(t, p.Play(context.Background(), CueFor(Success)))
	assert.Equal(t, 1, failing.calls)

	assert.NotPanics(t, func() {
		Safe(panickingPlayer{}, zerolog.Nop()).Fire(context.Background(), CueFor(Roll))
	})
}

func TestBusPlayer_PublishesCue(t *testing.T) {
	bus := events.NewLocalBus(zerolog.Nop())
	ch := bus.Subscribe()
	clk := clock.NewFake(time.Unix(100, 0))

	require.NoError(t, NewBusPlayer(bus, clk).Play(context.Background(), CueFor(Roll)))

	e := <-ch
	assert.Equal(t, events.SoundPlay, e.Type)
	var cue Cue
	require.NoError(t, e.Decode(&cue))
	assert.Equal(t, CueFor(Roll), cue)
}

func TestBusPlayer_CancelledContext(t *testing.T) {
	bus := events.NewLocalBus(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewBusPlayer(bus, clock.New()).Play(ctx, CueFor(Roll))
	assert.ErrorIs(t, err, context.Canceled)
}
