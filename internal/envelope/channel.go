package envelope

import (
	"fmt"
	"strings"

	"github.com/alexiusacademia/gorotor/internal/loadcase"
)

// Channel is one tracked load quantity of a blade section.
type Channel int

const (
	Thrust   Channel = iota // N, unsigned
	Torque                  // N-m, unsigned
	Flapwise                // bending out of the rotor plane, N-m, signed
	Edgewise                // bending in the rotor plane, N-m, signed
	Pressure                // normal-force coefficient of the chordwise field, signed

	numChannels
)

// Channels lists every channel in report order.
func Channels() []Channel {
	return []Channel{Thrust, Torque, Flapwise, Edgewise, Pressure}
}

func (c Channel) String() string {
	switch c {
	case Thrust:
		return "thrust"
	case Torque:
		return "torque"
	case Flapwise:
		return "flapwise"
	case Edgewise:
		return "edgewise"
	case Pressure:
		return "pressure"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ParseChannel maps a channel name (case-insensitive) to a Channel.
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels() {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown load channel %q", s)
}

// Signed reports whether the channel keeps both a maximum and a minimum.
// Unsigned channels keep the largest magnitude only.
func (c Channel) Signed() bool {
	return c == Flapwise || c == Edgewise || c == Pressure
}

// Value extracts the channel from a section result. The pressure channel is
// unavailable when the section has no resolved distribution.
func (c Channel) Value(s *loadcase.SectionResult) (float64, bool) {
	switch c {
	case Thrust:
		return s.Thrust, true
	case Torque:
		return s.Torque, true
	case Flapwise:
		return s.Flapwise, true
	case Edgewise:
		return s.Edgewise, true
	case Pressure:
		if s.Pressure == nil {
			return 0, false
		}
		return s.Pressure.NormalForce(), true
	}
	return 0, false
}

// Bound selects the maximum or the minimum of a channel.
type Bound int

const (
	Max Bound = iota
	Min
)

func (b Bound) String() string {
	if b == Min {
		return "min"
	}
	return "max"
}

// ParseBound maps "max" or "min" to a Bound.
func ParseBound(s string) (Bound, error) {
	switch strings.ToLower(s) {
	case "max", "":
		return Max, nil
	case "min":
		return Min, nil
	}
	return 0, fmt.Errorf("unknown bound %q (want max or min)", s)
}

// Bounds lists the bounds tracked for c.
func (c Channel) Bounds() []Bound {
	if c.Signed() {
		return []Bound{Max, Min}
	}
	return []Bound{Max}
}
