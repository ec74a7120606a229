// Package particles simulates the decorative fireworks shown behind the
// class view. The server computes frames; the browser only draws them.
package particles

import (
	"math"
	"time"
)

const (
	Gravity       = 0.07
	FadePerFrame  = 0.01
	BurstInterval = 350 * time.Millisecond
	MinBurst      = 50
	BurstSpread   = 30
	MinSpeed      = 2.0
	SpeedSpread   = 6.0
	MinSize       = 1.5
	SizeSpread    = 3.0
	// Lifetime is the number of frames a particle lives: alpha reaches zero
	// after 1/FadePerFrame updates.
	Lifetime = 100
)

// Colors is the burst palette; one color per burst.
var Colors = []string{"#FF0000", "#FFD700", "#00FF00", "#00BFFF", "#FF00FF", "#FFFFFF", "#FFA500", "#7FFF00", "#FF4500"}

// Rand is the random source. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Particle is one spark.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"-"`
	VY    float64 `json:"-"`
	Alpha float64 `json:"alpha"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	age   int
}

// Frame is what gets drawn for one animation step.
type Frame struct {
	Seq       int64      `json:"seq"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Particles []Particle `json:"particles"`
}

// System holds the live particles of one canvas. It is not safe for
// concurrent use; each stream owns its own System.
type System struct {
	width, height float64
	rng           Rand
	particles     []Particle
	lastBurst     time.Time
	seq           int64
}

// NewSystem creates an empty system for a canvas of the given size.
func NewSystem(width, height float64, rng Rand) *System {
	return &System{width: width, height: height, rng: rng}
}

// Burst spawns 50 to 79 particles of a single color at (x, y) and returns
// how many were added.
func (s *System) Burst(x, y float64) int {
	color := Colors[s.rng.Intn(len(Colors))]
	count := MinBurst + s.rng.Intn(BurstSpread)
	for i := 0; i < count; i++ {
		angle := s.rng.Float64() * 2 * math.Pi
		speed := s.rng.Float64()*SpeedSpread + MinSpeed
		s.particles = append(s.particles, Particle{
			X:     x,
			Y:     y,
			VX:    math.Cos(angle) * speed,
			VY:    math.Sin(angle) * speed,
			Alpha: 1,
			Size:  s.rng.Float64()*SizeSpread + MinSize,
			Color: color,
		})
	}
	return count
}

// Tick advances one frame at time now, bursting at a random point in the
// upper 70% of the canvas when BurstInterval has passed since the last burst.
func (s *System) Tick(now time.Time) Frame {
	if now.Sub(s.lastBurst) > BurstInterval {
		s.Burst(s.rng.Float64()*s.width, s.rng.Float64()*s.height*0.7)
		s.lastBurst = now
	}
	return s.Step()
}

// Step applies one frame of motion without spawning anything. Particles
// whose alpha reaches zero are removed.
func (s *System) Step() Frame {
	live := s.particles[:0]
	for _, p := range s.particles {
		p.X += p.VX
		p.Y += p.VY
		p.VY += Gravity
		p.age++
		if p.age >= Lifetime {
			continue
		}
		p.Alpha = 1 - float64(p.age)*FadePerFrame
		live = append(live, p)
	}
	s.particles = live
	s.seq++

	out := make([]Particle, len(live))
	copy(out, live)
	return Frame{Seq: s.seq, Width: s.width, Height: s.height, Particles: out}
}

// Len returns the number of live particles.
func (s *System) Len() int { return len(s.particles) }
