package airfoil

import (
	"math"
	"sort"
)

// Geometry holds the shape properties of a profile, in chord-normalized units
// when the coordinates are.
type Geometry struct {
	Chord          float64 // leading to trailing edge distance along x
	LeadingEdgeX   float64
	MaxThickness   float64
	MaxThicknessAt float64 // x of MaxThickness
	Area           float64
	CentroidX      float64
	CentroidY      float64
}

// ThicknessRatio returns the maximum thickness over the chord.
func (g Geometry) ThicknessRatio() float64 {
	if g.Chord == 0 {
		return 0
	}
	return g.MaxThickness / g.Chord
}

// ProfileGeometry computes the geometry of a closed profile given in surface
// order. Thickness is sampled at 200 chordwise stations.
func ProfileGeometry(pts []Point) Geometry {
	var g Geometry
	if len(pts) < 3 {
		return g
	}

	minX, maxX := pts[0].X, pts[0].X
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	g.LeadingEdgeX = minX
	g.Chord = maxX - minX
	g.Area, g.CentroidX, g.CentroidY = areaAndCentroid(pts)

	const samples = 200
	for i := 1; i < samples; i++ {
		x := minX + g.Chord*float64(i)/samples
		if t := thicknessAt(pts, x); t > g.MaxThickness {
			g.MaxThickness, g.MaxThicknessAt = t, x
		}
	}
	return g
}

// areaAndCentroid applies the shoelace formula. The profile is closed
// implicitly from the last point back to the first.
func areaAndCentroid(pts []Point) (area, cx, cy float64) {
	var signed, sumX, sumY float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		signed += cross
		sumX += (pts[i].X + pts[j].X) * cross
		sumY += (pts[i].Y + pts[j].Y) * cross
	}
	signed /= 2
	if signed == 0 {
		return 0, 0, 0
	}
	return math.Abs(signed), sumX / (6 * signed), sumY / (6 * signed)
}

// thicknessAt returns the total material height cut by a vertical line at x.
func thicknessAt(pts []Point, x float64) float64 {
	var ys []float64
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		if (a.X <= x && b.X > x) || (b.X <= x && a.X > x) {
			t := (x - a.X) / (b.X - a.X)
			ys = append(ys, a.Y+t*(b.Y-a.Y))
		}
	}
	if len(ys) < 2 {
		return 0
	}
	sort.Float64s(ys)
	var total float64
	for i := 0; i+1 < len(ys); i += 2 {
		total += ys[i+1] - ys[i]
	}
	return total
}
