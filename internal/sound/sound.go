// Package sound carries fire-and-forget audio cues. The server never plays
// audio itself: cues are published for the browser, and any failure along
// the way is logged and dropped.
package sound

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/events"
)

// Name identifies a cue.
type Name string

const (
	ScoreUp   Name = "score_up"
	ScoreDown Name = "score_down"
	Roll      Name = "roll"
	Success   Name = "success"
)

// Cue is one sound to play.
type Cue struct {
	Name   Name    `json:"name"`
	URL    string  `json:"url"`
	Volume float64 `json:"volume"`
}

var cues = map[Name]Cue{
	ScoreUp:   {Name: ScoreUp, URL: "https://assets.mixkit.co/active_storage/sfx/2019/2019-preview.mp3", Volume: 0.7},
	ScoreDown: {Name: ScoreDown, URL: "https://assets.mixkit.co/active_storage/sfx/2021/2021-preview.mp3", Volume: 0.5},
	Roll:      {Name: Roll, URL: "https://assets.mixkit.co/active_storage/sfx/2571/2571-preview.mp3", Volume: 0.2},
	Success:   {Name: Success, URL: "https://assets.mixkit.co/active_storage/sfx/1435/1435-preview.mp3", Volume: 0.7},
}

// CueFor returns the cue registered under name.
func CueFor(name Name) Cue {
	return cues[name]
}

// ForScore picks the score cue for a behavior sign.
func ForScore(positive bool) Cue {
	if positive {
		return cues[ScoreUp]
	}
	return cues[ScoreDown]
}

// Player plays a cue.
type Player interface {
	Play(ctx context.Context, cue Cue) error
}

// Nop discards every cue.
type Nop struct{}

func (Nop) Play(context.Context, Cue) error { return nil }

// BusPlayer hands cues to the browser over the event bus.
type BusPlayer struct {
	bus   events.Publisher
	clock clock.Clock
}

// NewBusPlayer creates a BusPlayer.
func NewBusPlayer(bus events.Publisher, clk clock.Clock) *BusPlayer {
	return &BusPlayer{bus: bus, clock: clk}
}

func (p *BusPlayer) Play(ctx context.Context, cue Cue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.bus.Publish(events.New(events.SoundPlay, p.clock.Now(), cue))
	return nil
}

// SafePlayer never fails and never panics; problems are logged at warn level.
type SafePlayer struct {
	next Player
	log  zerolog.Logger
}

// Safe wraps next so playback problems cannot interrupt the caller.
func Safe(next Player, log zerolog.Logger) *SafePlayer {
	return &SafePlayer{next: next, log: log.With().Str("component", "sound").Logger()}
}

// Fire plays cue and swallows any error.
func (p *SafePlayer) Fire(ctx context.Context, cue Cue) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().Interface("panic", r).Str("cue", string(cue.Name)).Msg("Sound playback panicked")
		}
	}()
	if err := p.next.Play(ctx, cue); err != nil {
		p.log.Warn().Err(err).Str("cue", string(cue.Name)).Msg("Sound playback prevented")
	}
}

// Play satisfies Player; it always returns nil.
func (p *SafePlayer) Play(ctx context.Context, cue Cue) error {
	p.Fire(ctx, cue)
	return nil
}
