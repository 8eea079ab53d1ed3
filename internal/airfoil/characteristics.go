package airfoil

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// linearRange bounds the angles (deg) used to fit the lift slope.
const linearRange = 5.0

// RotorCharacteristics are the per-section aerodynamic inputs of the rotor
// solver's AERO menu.
type RotorCharacteristics struct {
	ZeroLiftAlpha float64 // deg
	LiftSlope     float64 // dCl/dalpha, per rad
	ClMax         float64
	ClMin         float64
	CdMin         float64
	ClAtCdMin     float64
	DragCurvature float64 // dCd/d(Cl^2)
	Cm            float64
	Reynolds      float64
}

// BlendCharacteristics returns (1-f)*a + f*b, field by field.
func BlendCharacteristics(a, b RotorCharacteristics, f float64) RotorCharacteristics {
	mix := func(x, y float64) float64 { return (1-f)*x + f*y }
	return RotorCharacteristics{
		ZeroLiftAlpha: mix(a.ZeroLiftAlpha, b.ZeroLiftAlpha),
		LiftSlope:     mix(a.LiftSlope, b.LiftSlope),
		ClMax:         mix(a.ClMax, b.ClMax),
		ClMin:         mix(a.ClMin, b.ClMin),
		CdMin:         mix(a.CdMin, b.CdMin),
		ClAtCdMin:     mix(a.ClAtCdMin, b.ClAtCdMin),
		DragCurvature: mix(a.DragCurvature, b.DragCurvature),
		Cm:            mix(a.Cm, b.Cm),
		Reynolds:      mix(a.Reynolds, b.Reynolds),
	}
}

// RotorCharacteristics derives the rotor solver's section inputs from the
// polar line closest to re. A zero re selects the design Reynolds number.
func (a *Airfoil) RotorCharacteristics(re float64) (RotorCharacteristics, error) {
	t := a.polar.Load()
	if t == nil {
		return RotorCharacteristics{}, fmt.Errorf("airfoil %s: polar: %w", a.Name, ErrDataUnavailable)
	}
	if re == 0 {
		re = a.DesignReynolds
	}
	l := t.srf.nearest(re)
	if len(l.alphas) < 2 {
		return RotorCharacteristics{}, fmt.Errorf("airfoil %s: %w: polar line Re=%g has fewer than two points",
			a.Name, ErrMalformedTable, l.re)
	}

	n := len(l.alphas)
	cl := make([]float64, n)
	cd := make([]float64, n)
	for i, v := range l.values {
		cl[i] = v[Cl]
		cd[i] = v[Cd]
	}

	var xs, ys []float64
	for i, alpha := range l.alphas {
		if math.Abs(alpha) <= linearRange {
			xs = append(xs, alpha*math.Pi/180)
			ys = append(ys, cl[i])
		}
	}
	if len(xs) < 2 {
		xs, ys = xs[:0], ys[:0]
		for i, alpha := range l.alphas {
			xs = append(xs, alpha*math.Pi/180)
			ys = append(ys, cl[i])
		}
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if slope == 0 || !finite(slope) {
		return RotorCharacteristics{}, fmt.Errorf("airfoil %s: %w: flat lift curve at Re=%g", a.Name, ErrMalformedTable, l.re)
	}

	rc := RotorCharacteristics{
		ZeroLiftAlpha: -intercept / slope * 180 / math.Pi,
		LiftSlope:     slope,
		ClMax:         floats.Max(cl),
		ClMin:         floats.Min(cl),
		Reynolds:      l.re,
	}

	iMin := floats.MinIdx(cd)
	rc.CdMin = cd[iMin]
	rc.ClAtCdMin = cl[iMin]

	// Drag bucket: Cd - CdMin = k (Cl - ClAtCdMin)^2, fitted through the origin.
	dx := make([]float64, n)
	dy := make([]float64, n)
	for i := range cl {
		d := cl[i] - rc.ClAtCdMin
		dx[i] = d * d
		dy[i] = cd[i] - rc.CdMin
	}
	if floats.Sum(dx) > 0 {
		_, rc.DragCurvature = stat.LinearRegression(dx, dy, nil, true)
	}

	cm := make([]float64, int(numQuantities))
	l.at(rc.ZeroLiftAlpha, cm)
	rc.Cm = cm[Cm]

	return rc, nil
}

// ErrLiftOutOfRange is returned by InvertLift when the target lift cannot be
// reached on the pre-stall branch.
var ErrLiftOutOfRange = errors.New("lift coefficient outside pre-stall range")

// InvertLift finds the angle of attack at which the lift curve cl(alphas)
// reaches target. Only the pre-stall branch (up to maximum lift) is searched.
// Below the first sample the first segment is extrapolated linearly; above
// maximum lift the stall angle is returned with ErrLiftOutOfRange.
func InvertLift(alphas, cls []float64, target float64) (alpha float64, extrapolated bool, err error) {
	if len(alphas) != len(cls) || len(alphas) < 2 {
		return 0, false, fmt.Errorf("%w: lift curve needs at least two samples", ErrDataUnavailable)
	}
	stall := floats.MaxIdx(cls)
	if target > cls[stall] {
		return alphas[stall], true, ErrLiftOutOfRange
	}

	// Start from the minimum lift before stall so a negative-stall region
	// does not shadow the linear range.
	start := floats.MinIdx(cls[:stall+1])
	if target < cls[start] {
		if start+1 >= len(cls) || cls[start+1] == cls[start] {
			return alphas[start], true, ErrLiftOutOfRange
		}
		t := (target - cls[start]) / (cls[start+1] - cls[start])
		return alphas[start] + t*(alphas[start+1]-alphas[start]), true, nil
	}
	for i := start; i < stall; i++ {
		lo, hi := cls[i], cls[i+1]
		if target >= lo && target <= hi && hi != lo {
			t := (target - lo) / (hi - lo)
			return (1-t)*alphas[i] + t*alphas[i+1], false, nil
		}
	}
	return alphas[stall], false, nil
}

// LiftCurve samples Cl at the alpha nodes around re. Points off the sampled
// grid of one bracketing line are still included; they are not flagged.
func (a *Airfoil) LiftCurve(re float64) (alphas, cls []float64, err error) {
	t := a.polar.Load()
	if t == nil {
		return nil, nil, fmt.Errorf("airfoil %s: polar: %w", a.Name, ErrDataUnavailable)
	}
	alphas = t.srf.alphas(re)
	cls = make([]float64, len(alphas))
	for i, alpha := range alphas {
		v, _ := t.srf.at(re, alpha)
		cls[i] = v[Cl]
	}
	return alphas, cls, nil
}

// AlphaForCl returns the angle of attack (deg) at which the airfoil reaches
// lift coefficient cl at Reynolds number re.
func (a *Airfoil) AlphaForCl(re, cl float64) (float64, bool, error) {
	alphas, cls, err := a.LiftCurve(re)
	if err != nil {
		return 0, false, err
	}
	alpha, extrapolated, err := InvertLift(alphas, cls, cl)
	if err != nil {
		return alpha, extrapolated, fmt.Errorf("airfoil %s: Re=%g Cl=%g: %w", a.Name, re, cl, err)
	}
	return alpha, extrapolated, nil
}
