package airfoil

import (
	"fmt"
	"math"
	"sort"
)

// sample is one node of a vector-valued table over (Reynolds, alpha).
type sample struct {
	re    float64
	alpha float64
	v     []float64
}

// line holds all nodes sharing one Reynolds number, sorted by alpha.
type line struct {
	re     float64
	alphas []float64
	values [][]float64
}

// surface interpolates a vector-valued table over (Reynolds, alpha).
//
// The nodes need not form a full tensor grid: each Reynolds line keeps its own
// alpha samples, since viscous polars rarely converge at the same angles for
// every Reynolds number. Interpolation is linear in alpha along the two lines
// bracketing the query Reynolds number, then linear in Reynolds between them.
// Queries outside the sampled range extrapolate linearly from the nearest edge
// segment and are reported as extrapolated.
type surface struct {
	dim   int
	lines []line
}

func newSurface(dim int, samples []sample) (*surface, error) {
	if len(samples) == 0 {
		return nil, ErrDataUnavailable
	}

	byRe := make(map[float64][]sample)
	for _, s := range samples {
		if len(s.v) != dim {
			return nil, fmt.Errorf("%w: sample at Re=%g alpha=%g has %d values, want %d",
				ErrMalformedTable, s.re, s.alpha, len(s.v), dim)
		}
		if !finite(s.re) || !finite(s.alpha) || s.re <= 0 {
			return nil, fmt.Errorf("%w: invalid key Re=%g alpha=%g", ErrMalformedTable, s.re, s.alpha)
		}
		for _, x := range s.v {
			if !finite(x) {
				return nil, fmt.Errorf("%w: non-finite value at Re=%g alpha=%g", ErrMalformedTable, s.re, s.alpha)
			}
		}
		byRe[s.re] = append(byRe[s.re], s)
	}

	srf := &surface{dim: dim}
	for re, group := range byRe {
		sort.Slice(group, func(i, j int) bool { return group[i].alpha < group[j].alpha })
		l := line{re: re}
		for i, s := range group {
			if i > 0 && s.alpha == group[i-1].alpha {
				return nil, fmt.Errorf("%w: duplicate key Re=%g alpha=%g", ErrMalformedTable, re, s.alpha)
			}
			l.alphas = append(l.alphas, s.alpha)
			l.values = append(l.values, s.v)
		}
		srf.lines = append(srf.lines, l)
	}
	sort.Slice(srf.lines, func(i, j int) bool { return srf.lines[i].re < srf.lines[j].re })

	return srf, nil
}

// at returns the interpolated vector at (re, alpha) and whether the point
// was outside the sampled range.
func (s *surface) at(re, alpha float64) ([]float64, bool) {
	out := make([]float64, s.dim)

	if len(s.lines) == 1 {
		extrapolated := s.lines[0].at(alpha, out)
		return out, extrapolated || re != s.lines[0].re
	}

	res := make([]float64, len(s.lines))
	for i, l := range s.lines {
		res[i] = l.re
	}
	i, outside := bracket(res, re)
	lo, hi := s.lines[i], s.lines[i+1]

	vlo := make([]float64, s.dim)
	vhi := make([]float64, s.dim)
	exLo := lo.at(alpha, vlo)
	exHi := hi.at(alpha, vhi)

	t := (re - lo.re) / (hi.re - lo.re)
	lerp(out, vlo, vhi, t)

	extrapolated := outside
	if t != 1 && exLo {
		extrapolated = true
	}
	if t != 0 && exHi {
		extrapolated = true
	}
	return out, extrapolated
}

// alphas returns the sorted union of alpha nodes on the lines that bracket re.
func (s *surface) alphas(re float64) []float64 {
	if len(s.lines) == 1 {
		return append([]float64(nil), s.lines[0].alphas...)
	}
	res := make([]float64, len(s.lines))
	for i, l := range s.lines {
		res[i] = l.re
	}
	i, _ := bracket(res, re)

	seen := make(map[float64]bool)
	var out []float64
	for _, l := range s.lines[i : i+2] {
		for _, a := range l.alphas {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Float64s(out)
	return out
}

// nearest returns the line whose Reynolds number is closest to re.
func (s *surface) nearest(re float64) line {
	best := s.lines[0]
	for _, l := range s.lines[1:] {
		if math.Abs(l.re-re) < math.Abs(best.re-re) {
			best = l
		}
	}
	return best
}

func (l line) at(alpha float64, dst []float64) bool {
	if len(l.alphas) == 1 {
		copy(dst, l.values[0])
		return alpha != l.alphas[0]
	}
	i, outside := bracket(l.alphas, alpha)
	t := (alpha - l.alphas[i]) / (l.alphas[i+1] - l.alphas[i])
	lerp(dst, l.values[i], l.values[i+1], t)
	return outside
}

// bracket returns i such that xs[i] <= x <= xs[i+1]. Outside the range it
// returns the first or last segment and reports true. xs must be sorted,
// strictly increasing and hold at least two values.
func bracket(xs []float64, x float64) (int, bool) {
	n := len(xs)
	if x < xs[0] {
		return 0, true
	}
	if x > xs[n-1] {
		return n - 2, true
	}
	i := sort.SearchFloat64s(xs, x)
	if i == 0 {
		return 0, false
	}
	return i - 1, false
}

// lerp writes (1-t)*a + t*b into dst. The form is exact at t=0 and t=1.
func lerp(dst, a, b []float64, t float64) {
	for k := range dst {
		dst[k] = (1-t)*a[k] + t*b[k]
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
