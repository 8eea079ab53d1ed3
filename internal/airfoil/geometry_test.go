package airfoil

import (
	"math"
	"testing"
)

func TestProfileGeometry(t *testing.T) {
	diamond := []Point{{1, 0}, {0.5, 0.05}, {0, 0}, {0.5, -0.05}, {1, 0}}
	g := ProfileGeometry(diamond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"chord", g.Chord, 1},
		{"area", g.Area, 0.05},
		{"max thickness", g.MaxThickness, 0.1},
		{"max thickness at", g.MaxThicknessAt, 0.5},
		{"thickness ratio", g.ThicknessRatio(), 0.1},
		{"centroid x", g.CentroidX, 0.5},
		{"centroid y", g.CentroidY, 0},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s = %g, want %g", tt.name, tt.got, tt.want)
		}
	}

	if g := ProfileGeometry(diamond[:2]); g != (Geometry{}) {
		t.Errorf("two points gave %+v", g)
	}
}
