package airfoil

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataUnavailable is returned when a query needs a table that was never set.
	ErrDataUnavailable = errors.New("airfoil data unavailable")

	// ErrMalformedTable is returned when a polar or pressure table is structurally invalid.
	ErrMalformedTable = errors.New("malformed airfoil table")
)

// Point is a profile coordinate normalized by chord.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quantity selects one polar coefficient.
type Quantity int

const (
	Cl Quantity = iota
	Cd
	Cdp
	Cm
	XtrTop
	XtrBottom

	numQuantities
)

func (q Quantity) String() string {
	switch q {
	case Cl:
		return "CL"
	case Cd:
		return "CD"
	case Cdp:
		return "CDp"
	case Cm:
		return "CM"
	case XtrTop:
		return "Top_Xtr"
	case XtrBottom:
		return "Bot_Xtr"
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// ParseQuantity maps a column name (case-insensitive) to a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	for q := Cl; q < numQuantities; q++ {
		if strings.EqualFold(s, q.String()) {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown polar quantity %q", s)
}

// PolarPoint is one sampled row of a polar: coefficients at (Reynolds, Alpha).
type PolarPoint struct {
	Reynolds  float64
	Alpha     float64 // deg
	Cl        float64
	Cd        float64
	Cdp       float64
	Cm        float64
	XtrTop    float64 // transition location on the suction side, x/c
	XtrBottom float64 // transition location on the pressure side, x/c
}

func (p PolarPoint) vector() []float64 {
	return []float64{p.Cl, p.Cd, p.Cdp, p.Cm, p.XtrTop, p.XtrBottom}
}

// CpPoint is one chordwise pressure coefficient sample.
type CpPoint struct {
	X  float64
	Cp float64
}

// PressureCurve is a raw chordwise pressure curve at one (Reynolds, Alpha) sample,
// in surface order: trailing edge over the suction side to the leading edge and
// back along the pressure side.
type PressureCurve struct {
	Reynolds float64
	Alpha    float64
	Points   []CpPoint
}

// Coefficients holds all polar quantities at one query point.
type Coefficients struct {
	Reynolds     float64
	Alpha        float64
	Cl           float64
	Cd           float64
	Cdp          float64
	Cm           float64
	XtrTop       float64
	XtrBottom    float64
	Extrapolated bool
}

func coefficientsFrom(re, alpha float64, v []float64, extrapolated bool) Coefficients {
	return Coefficients{
		Reynolds:     re,
		Alpha:        alpha,
		Cl:           v[Cl],
		Cd:           v[Cd],
		Cdp:          v[Cdp],
		Cm:           v[Cm],
		XtrTop:       v[XtrTop],
		XtrBottom:    v[XtrBottom],
		Extrapolated: extrapolated,
	}
}

// Value returns the coefficient selected by q.
func (c Coefficients) Value(q Quantity) float64 {
	switch q {
	case Cl:
		return c.Cl
	case Cd:
		return c.Cd
	case Cdp:
		return c.Cdp
	case Cm:
		return c.Cm
	case XtrTop:
		return c.XtrTop
	case XtrBottom:
		return c.XtrBottom
	}
	return 0
}

// Sample is a single interpolated value. Extrapolated is set when the query
// point lies outside the sampled grid.
type Sample struct {
	Value        float64
	Extrapolated bool
}
