package engine

import (
	"math"
	"sort"
)

// ChannelCount is the number of indicator channels.
const ChannelCount = 8

// Channel positions. The order is part of the report format.
const (
	Energy = iota
	Constancy
	Clarity
	Rhythm
	Focus
	Expansion
	Motivation
	Steadiness
)

// ChannelNames lists the display name of each channel in order.
var ChannelNames = [ChannelCount]string{
	"Energy",
	"Constancy",
	"Clarity",
	"Rhythm",
	"Focus",
	"Expansion",
	"Motivation",
	"Stability",
}

// Indicators is an ordered vector of channel values, each in [0,1].
type Indicators [ChannelCount]float64

// Clamped returns a copy with every value limited to [0,1].
func (v Indicators) Clamped() Indicators {
	for i := range v {
		v[i] = clamp01(v[i])
	}
	return v
}

// Inputs are the per-tick signals the scorer blends into targets.
type Inputs struct {
	Active     bool
	Loudness   float64
	NoiseFloor float64
	Stability  float64
	Continuity float64 // seconds
}

// Targets returns the value each channel integrates toward. Every target
// is zero on a quiet tick.
func Targets(in Inputs) Indicators {
	var t Indicators
	if !in.Active {
		return t
	}

	cont := clamp01(in.Continuity / continuitySaturation)
	energy := clamp01((in.Loudness - in.NoiseFloor) / energySpan)
	stab := clamp01(in.Stability)

	t[Energy] = energy
	t[Constancy] = 0.55*stab + 0.45*cont
	t[Clarity] = 0.55*stab + 0.45*energy
	t[Rhythm] = 0.25 + 0.75*cont
	t[Focus] = 0.30 + 0.70*cont
	t[Expansion] = cont
	t[Motivation] = 0.50*cont + 0.50*energy
	t[Steadiness] = 0.65*stab + 0.35*cont
	return t.Clamped()
}

// Scorer integrates the indicator vector with an exponential attack
// while active and a linear release while quiet.
type Scorer struct {
	s Indicators
}

// Step advances every channel by one tick.
func (sc *Scorer) Step(in Inputs) {
	if in.Active {
		t := Targets(in)
		for i := range sc.s {
			sc.s[i] += (t[i] - sc.s[i]) * AttackRate
		}
	} else {
		for i := range sc.s {
			sc.s[i] = max(0, sc.s[i]-ReleaseRate)
		}
	}
	sc.s = sc.s.Clamped()
}

// Current returns the clamped indicator vector.
func (sc *Scorer) Current() Indicators {
	return sc.s.Clamped()
}

// ReleaseTicks is the number of quiet ticks that brings any channel from 1 to 0.
func ReleaseTicks() int {
	return int(math.Ceil(1 / ReleaseRate))
}

// Highlight is a channel name with its value as a whole percentage.
type Highlight struct {
	Channel int
	Name    string
	Percent int
}

// Highlights returns the n strongest channels, strongest first. Ties keep
// channel order.
func Highlights(v Indicators, n int) []Highlight {
	hs := make([]Highlight, 0, ChannelCount)
	for i, x := range v {
		hs = append(hs, Highlight{
			Channel: i,
			Name:    ChannelNames[i],
			Percent: int(math.Round(clamp01(x) * 100)),
		})
	}
	sort.SliceStable(hs, func(a, b int) bool {
		return v[hs[a].Channel] > v[hs[b].Channel]
	})
	if n < len(hs) {
		hs = hs[:max(n, 0)]
	}
	return hs
}
