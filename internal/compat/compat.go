// Package compat scores two member profiles into named compatibility meters.
//
// Every meter is a deterministic base score perturbed by up to ±10 points of
// jitter, clamped to [0,100] and mapped onto one of three label bands. The
// package holds no state and performs no I/O.
package compat

import (
	"math"
	"math/rand/v2"

	"campus-vibe-backend/internal/models"
)

// MeterName identifies one compatibility meter
type MeterName string

const (
	VibeCollision    MeterName = "vibe_collision"
	SharedBrainCell  MeterName = "shared_brain_cell"
	AwkwardSilence   MeterName = "awkward_silence"
	ChaosEscalation  MeterName = "chaos_escalation"
	TextingEnergy    MeterName = "texting_energy"
	SocialBattery    MeterName = "social_battery"
	InsideJokeSpeed  MeterName = "inside_joke_speed"
	EmotionalDamage  MeterName = "emotional_damage"
	PersonalitySync  MeterName = "personality_sync"
	ArgumentSurvival MeterName = "argument_survival"
	EventAttendance  MeterName = "event_attendance"
	UnhingedCombo    MeterName = "unhinged_combo"
)

// AllMeters lists every meter in a fixed order. Daily selection indexes into it.
var AllMeters = []MeterName{
	VibeCollision, SharedBrainCell, AwkwardSilence, ChaosEscalation,
	TextingEnergy, SocialBattery, InsideJokeSpeed, EmotionalDamage,
	PersonalitySync, ArgumentSurvival, EventAttendance, UnhingedCombo,
}

// MaxJitter is the absolute bound of the random perturbation
const MaxJitter = 10.0

// Meter is one scored axis
type Meter struct {
	Value   int    `json:"value"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip"`
}

// Band is the label bucket a value falls into
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

// BandOf maps a value to its band: <33 low, 33..66 medium, >=67 high
func BandOf(value int) Band {
	switch {
	case value < 33:
		return BandLow
	case value < 67:
		return BandMedium
	default:
		return BandHigh
	}
}

// Clamp bounds v to [0,100]
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Engine computes meters. The zero value is not usable; call NewEngine.
type Engine struct {
	jitter func() float64
}

// Option configures an Engine
type Option func(*Engine)

// WithJitter replaces the jitter source. fn should return values in [-MaxJitter, MaxJitter].
func WithJitter(fn func() float64) Option {
	return func(e *Engine) {
		e.jitter = fn
	}
}

// NewEngine creates an engine with uniform ±10 jitter
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		jitter: func() float64 {
			return rand.Float64()*2*MaxJitter - MaxJitter
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeMeters scores a against b on all twelve meters
func (e *Engine) ComputeMeters(a, b models.Profile) map[MeterName]Meter {
	meters := make(map[MeterName]Meter, len(recipes))
	for _, r := range recipes {
		meters[r.name] = e.finish(r, r.base(&a, &b))
	}
	return meters
}

// Compute scores a single meter. ok is false for an unknown name.
func (e *Engine) Compute(name MeterName, a, b models.Profile) (Meter, bool) {
	for _, r := range recipes {
		if r.name == name {
			return e.finish(r, r.base(&a, &b)), true
		}
	}
	return Meter{}, false
}

func (e *Engine) finish(r recipe, base float64) Meter {
	value := int(math.Round(Clamp(base + e.jitter())))
	return Meter{
		Value:   value,
		Label:   r.labels[BandOf(value)],
		Tooltip: r.tooltip,
	}
}

// Subset picks the named meters out of a full computation
func Subset(all map[MeterName]Meter, names []MeterName) map[MeterName]Meter {
	out := make(map[MeterName]Meter, len(names))
	for _, n := range names {
		if m, ok := all[n]; ok {
			out[n] = m
		}
	}
	return out
}
