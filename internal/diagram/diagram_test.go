package diagram

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
)

func testDistribution() *airfoil.Distribution {
	return &airfoil.Distribution{
		Reynolds: 5e5,
		Alpha:    4,
		X:        []float64{0.1, 0.5, 0.9},
		Suction:  []float64{-1.2, -0.5, -0.1},
		Pressure: []float64{0.3, 0.1, 0.05},
	}
}

func TestDrawSpanChart(t *testing.T) {
	out := DrawSpanChart("Flapwise max", "N·m", []Bar{
		{Label: "r=0.20", Value: 25, Note: "climb"},
		{Label: "r=0.50", Value: -12.5, Note: "cruise"},
		{Label: "r=0.90", Value: 0},
	})
	lines := strings.Split(out, "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "│") {
			rows = append(rows, l)
		}
	}
	if len(rows) != 3 {
		t.Fatalf("got %d bar rows:\n%s", len(rows), out)
	}
	if n := strings.Count(rows[0], "█"); n != 24 {
		t.Errorf("peak bar has %d blocks, want 24", n)
	}
	if n := strings.Count(rows[1], "█"); n != 12 {
		t.Errorf("half bar has %d blocks, want 12", n)
	}
	if strings.Index(rows[1], "█") > strings.Index(rows[1], "│") {
		t.Errorf("negative bar drawn right of the axis: %q", rows[1])
	}
	if !strings.Contains(rows[0], "climb") || strings.Contains(rows[2], "█") {
		t.Errorf("unexpected rows:\n%s", out)
	}
}

func TestDrawPressureChart(t *testing.T) {
	d := testDistribution()
	d.Extrapolated = true
	out := DrawPressureChart(d, 40, 10)

	tests := []struct {
		name string
		want string
	}{
		{"header", "alpha = 4.00"},
		{"peak suction label", "1.20"},
		{"lowest pressure label", "-0.30"},
		{"caption", "x/c 0.10 to 0.90"},
		{"extrapolation note", "extrapolated"},
	}
	for _, tt := range tests {
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: %q missing from\n%s", tt.name, tt.want, out)
		}
	}

	rows := 0
	for _, l := range strings.Split(out, "\n") {
		if strings.ContainsAny(l, "┤┼") {
			rows++
		}
	}
	if rows < 10 {
		t.Errorf("got %d plot rows, want at least the height:\n%s", rows, out)
	}

	if DrawPressureChart(nil, 40, 10) != "" {
		t.Error("nil distribution drew a chart")
	}
	if DrawPressureChart(&airfoil.Distribution{}, 40, 10) != "" {
		t.Error("empty distribution drew a chart")
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{0, 0.2, 1}, []float64{0, 2, 10}, 6)
	want := []float64{0, 2, 4, 6, 8, 10}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("resample = %v, want %v", got, want)
		}
	}
	if got := resample([]float64{0.5}, []float64{3}, 4); got[3] != 3 {
		t.Errorf("single station resample = %v", got)
	}
}

func TestDrawSummaryBox(t *testing.T) {
	body := []string{"cases: 2", "failures: 0"}
	out := DrawSummaryBox("Loads", body)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// top border, title, separator, body, bottom border
	if want := len(body) + 4; len(lines) != want {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), want, out)
	}
	width := len([]rune(lines[0]))
	for _, l := range lines {
		if len([]rune(l)) != width {
			t.Errorf("ragged box:\n%s", out)
			break
		}
	}
}

func TestExportPlots(t *testing.T) {
	dir := t.TempDir()

	cp := filepath.Join(dir, "cp", "root.png")
	if err := ExportPressurePlot("Root section", []PressureSeries{{Label: "climb", Distribution: testDistribution()}}, cp); err != nil {
		t.Fatalf("ExportPressurePlot: %v", err)
	}

	span := filepath.Join(dir, "flapwise")
	series := []SpanSeries{
		{Label: "max", Points: []SpanPoint{{Radius: 0.2, Value: 25, Case: "climb"}, {Radius: 0.9, Value: 18, Case: "climb"}}},
		{Label: "min", Points: []SpanPoint{{Radius: 0.2, Value: -3, Case: "cruise"}, {Radius: 0.9, Value: -1, Case: "cruise"}}},
	}
	if err := ExportEnvelopePlot("Flapwise moment", "N·m", series, span); err != nil {
		t.Fatalf("ExportEnvelopePlot: %v", err)
	}

	for _, path := range []string{cp, span + ".png"} {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}

	if err := ExportPressurePlot("empty", nil, filepath.Join(dir, "x.png")); err == nil {
		t.Error("empty pressure plot exported")
	}
	if err := ExportEnvelopePlot("empty", "N", []SpanSeries{{Label: "max"}}, filepath.Join(dir, "y.png")); err == nil {
		t.Error("empty envelope plot exported")
	}
}
