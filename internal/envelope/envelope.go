package envelope

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
	"github.com/alexiusacademia/gorotor/internal/metrics"
)

// DefaultTolerance is the absolute difference below which two extremes are
// considered equal.
const DefaultTolerance = 1e-9

// ErrNoExtreme is returned when no resolved case contributed to a channel.
var ErrNoExtreme = errors.New("no extreme recorded")

// Case is one successfully resolved load case offered to the reduction.
// Index is the case's position in the propeller and decides ties.
type Case struct {
	Index  int
	Name   string
	Result *loadcase.Result
}

// Extreme is the governing value of one channel bound at one section together
// with the case it came from. Pressure is that case's complete chordwise
// distribution at the section, never a composite of several cases.
type Extreme struct {
	Value     float64
	Case      string
	CaseIndex int
	Pressure  *airfoil.Distribution

	// Ties names the other cases within tolerance of Value.
	Ties []string
}

// SectionEnvelope holds the extremes of every channel at one section.
type SectionEnvelope struct {
	Section int
	Radius  float64 // m

	extremes [numChannels][2]*Extreme
}

// Extreme returns the extreme of channel c and bound b.
func (s *SectionEnvelope) Extreme(c Channel, b Bound) (Extreme, bool) {
	if c < 0 || c >= numChannels || b < Max || b > Min {
		return Extreme{}, false
	}
	e := s.extremes[c][b]
	if e == nil {
		return Extreme{}, false
	}
	return *e, true
}

// Envelope is the per-section, per-channel reduction over resolved load cases.
type Envelope struct {
	Sections  []SectionEnvelope
	Cases     []string // contributing cases, in index order
	Tolerance float64

	// Revision is the propeller revision the envelope was computed at.
	Revision uint64
}

type candidate struct {
	key   float64 // compared quantity: the value, or its magnitude
	value float64
	c     *Case
	sr    *loadcase.SectionResult
}

// EffectiveTolerance returns the tolerance Compute applies for t. Negative
// values mean exact comparison.
func EffectiveTolerance(t float64) float64 {
	if t < 0 {
		return 0
	}
	return t
}

// Compute reduces cases into an envelope over sections with the given radii.
//
// For every section and channel the governing value is found first; among the
// cases within tolerance of it the one with the lowest Index is selected and
// the others are reported as ties. The selection therefore does not depend on
// the order of cases. Section results with an error still contribute their
// solver loads; the pressure channel needs a resolved distribution.
func Compute(radii []float64, cases []Case, tolerance float64) *Envelope {
	tolerance = EffectiveTolerance(tolerance)
	env := &Envelope{
		Sections:  make([]SectionEnvelope, len(radii)),
		Tolerance: tolerance,
	}
	for i, r := range radii {
		env.Sections[i] = SectionEnvelope{Section: i, Radius: r}
	}

	pool := make([][numChannels][2][]candidate, len(radii))
	for k := range cases {
		c := &cases[k]
		if c.Result == nil {
			continue
		}
		env.Cases = append(env.Cases, c.Name)
		for j := range c.Result.Sections {
			sr := &c.Result.Sections[j]
			if sr.Section < 0 || sr.Section >= len(radii) {
				continue
			}
			for _, ch := range Channels() {
				v, ok := ch.Value(sr)
				if !ok || math.IsNaN(v) {
					continue
				}
				if ch.Signed() {
					pool[sr.Section][ch][Max] = append(pool[sr.Section][ch][Max], candidate{key: v, value: v, c: c, sr: sr})
					pool[sr.Section][ch][Min] = append(pool[sr.Section][ch][Min], candidate{key: -v, value: v, c: c, sr: sr})
				} else {
					pool[sr.Section][ch][Max] = append(pool[sr.Section][ch][Max], candidate{key: math.Abs(v), value: v, c: c, sr: sr})
				}
			}
		}
	}

	ties := 0
	for s := range pool {
		for ch := range pool[s] {
			for b := range pool[s][ch] {
				if e := govern(pool[s][ch][b], tolerance); e != nil {
					env.Sections[s].extremes[ch][b] = e
					ties += len(e.Ties)
				}
			}
		}
	}
	metrics.AddEnvelopeTies(ties)
	return env
}

// govern picks the governing candidate: the largest key, preferring the
// lowest case index among keys within tolerance of it.
func govern(cands []candidate, tolerance float64) *Extreme {
	if len(cands) == 0 {
		return nil
	}
	top := math.Inf(-1)
	for _, c := range cands {
		top = math.Max(top, c.key)
	}

	var best *candidate
	var tied []*candidate
	for i := range cands {
		c := &cands[i]
		if !scalar.EqualWithinAbs(c.key, top, tolerance) {
			continue
		}
		tied = append(tied, c)
		if best == nil || c.c.Index < best.c.Index {
			best = c
		}
	}

	e := &Extreme{
		Value:     best.value,
		Case:      best.c.Name,
		CaseIndex: best.c.Index,
		Pressure:  best.sr.Pressure,
	}
	for _, c := range tied {
		if c != best {
			e.Ties = append(e.Ties, c.c.Name)
		}
	}
	return e
}

// Extreme returns the extreme of channel c and bound b at section s.
func (e *Envelope) Extreme(s int, c Channel, b Bound) (Extreme, error) {
	if s < 0 || s >= len(e.Sections) {
		return Extreme{}, fmt.Errorf("section %d out of range [0, %d)", s, len(e.Sections))
	}
	if b == Min && !c.Signed() {
		return Extreme{}, fmt.Errorf("channel %s is unsigned and keeps no minimum", c)
	}
	x, ok := e.Sections[s].Extreme(c, b)
	if !ok {
		return Extreme{}, fmt.Errorf("section %d %s %s: %w", s, c, b, ErrNoExtreme)
	}
	return x, nil
}

// Column returns the extremes of one channel bound along the span. Sections
// without an extreme hold a zero Extreme with an empty Case.
func (e *Envelope) Column(c Channel, b Bound) []Extreme {
	out := make([]Extreme, len(e.Sections))
	for i := range e.Sections {
		out[i], _ = e.Sections[i].Extreme(c, b)
	}
	return out
}

// Ties returns the number of tied selections in the envelope.
func (e *Envelope) Ties() int {
	n := 0
	for i := range e.Sections {
		for _, bounds := range e.Sections[i].extremes {
			for _, x := range bounds {
				if x != nil {
					n += len(x.Ties)
				}
			}
		}
	}
	return n
}
