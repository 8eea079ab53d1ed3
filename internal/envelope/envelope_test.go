package envelope

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
)

var radii = []float64{0.2, 0.5, 0.9}

// resolved builds a case whose sections carry the given flapwise moments and
// derived values on the other channels.
func resolved(index int, name string, flap []float64) Case {
	r := &loadcase.Result{}
	for i, f := range flap {
		r.Sections = append(r.Sections, loadcase.SectionResult{
			Section:  i,
			Radius:   radii[i],
			Flapwise: f,
			Edgewise: -f / 2,
			Thrust:   10 * f,
			Torque:   f / 10,
		})
	}
	return Case{Index: index, Name: name, Result: r}
}

func flapColumn(env *Envelope, b Bound) ([]float64, []string) {
	var vals []float64
	var names []string
	for _, x := range env.Column(Flapwise, b) {
		vals = append(vals, x.Value)
		names = append(names, x.Case)
	}
	return vals, names
}

func TestComputeScenario(t *testing.T) {
	cases := []Case{
		resolved(0, "cruise", []float64{10, 30, 15}),
		resolved(1, "climb", []float64{25, 20, 18}),
	}
	env := Compute(radii, cases, DefaultTolerance)

	vals, names := flapColumn(env, Max)
	if want := []float64{25, 30, 18}; !reflect.DeepEqual(vals, want) {
		t.Errorf("flapwise max = %v, want %v", vals, want)
	}
	if want := []string{"climb", "cruise", "climb"}; !reflect.DeepEqual(names, want) {
		t.Errorf("flapwise max cases = %v, want %v", names, want)
	}

	vals, names = flapColumn(env, Min)
	if want := []float64{10, 20, 15}; !reflect.DeepEqual(vals, want) {
		t.Errorf("flapwise min = %v, want %v", vals, want)
	}
	if want := []string{"cruise", "climb", "cruise"}; !reflect.DeepEqual(names, want) {
		t.Errorf("flapwise min cases = %v, want %v", names, want)
	}

	if got := env.Cases; !reflect.DeepEqual(got, []string{"cruise", "climb"}) {
		t.Errorf("contributing cases = %v", got)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	cases := []Case{
		resolved(0, "cruise", []float64{10, 30, 15}),
		resolved(1, "climb", []float64{25, 20, 18}),
		resolved(2, "dive", []float64{-5, 31, 2}),
	}
	first := Compute(radii, cases, DefaultTolerance)
	second := Compute(radii, cases, DefaultTolerance)
	for _, ch := range Channels() {
		for _, b := range ch.Bounds() {
			if !reflect.DeepEqual(first.Column(ch, b), second.Column(ch, b)) {
				t.Errorf("%s %s differs between identical computations", ch, b)
			}
		}
	}
}

func TestComputeIgnoresIntermediateCase(t *testing.T) {
	cases := []Case{
		resolved(0, "cruise", []float64{10, 30, 15}),
		resolved(1, "climb", []float64{25, 20, 18}),
	}
	before := Compute(radii, cases, DefaultTolerance)
	// Strictly between the two cases at every section, for every channel.
	after := Compute(radii, append(cases, resolved(2, "mid", []float64{17, 25, 16})), DefaultTolerance)

	for _, ch := range Channels() {
		for _, b := range ch.Bounds() {
			if !reflect.DeepEqual(before.Column(ch, b), after.Column(ch, b)) {
				t.Errorf("%s %s changed after adding an intermediate case", ch, b)
			}
		}
	}
}

func TestComputeTies(t *testing.T) {
	cases := []Case{
		resolved(0, "a", []float64{10, 5, 1}),
		resolved(1, "b", []float64{10.0005, 7, 1}),
		resolved(2, "c", []float64{9, 7, 1}),
	}
	env := Compute(radii, cases, 1e-3)

	x, err := env.Extreme(0, Flapwise, Max)
	if err != nil {
		t.Fatal(err)
	}
	if x.Case != "a" || x.Value != 10 || !reflect.DeepEqual(x.Ties, []string{"b"}) {
		t.Errorf("section 0 flapwise max = %+v, want case a tied with b", x)
	}

	x, _ = env.Extreme(1, Flapwise, Max)
	if x.Case != "b" || !reflect.DeepEqual(x.Ties, []string{"c"}) {
		t.Errorf("section 1 flapwise max = %+v, want case b tied with c", x)
	}

	// Reversing the input must not change the selection.
	rev := Compute(radii, []Case{cases[2], cases[1], cases[0]}, 1e-3)
	for _, ch := range Channels() {
		for _, b := range ch.Bounds() {
			got, want := rev.Column(ch, b), env.Column(ch, b)
			for i := range got {
				if got[i].Case != want[i].Case || got[i].Value != want[i].Value {
					t.Errorf("%s %s section %d: %s after reversal, %s before", ch, b, i, got[i].Case, want[i].Case)
				}
			}
		}
	}
	if env.Ties() == 0 {
		t.Error("Ties() = 0, want ties reported")
	}
}

func TestUnsignedChannelKeepsMagnitude(t *testing.T) {
	cases := []Case{
		resolved(0, "forward", []float64{4, 1, 1}),
		resolved(1, "reverse", []float64{-5, 1, 1}),
	}
	env := Compute(radii, cases, DefaultTolerance)
	x, err := env.Extreme(0, Thrust, Max)
	if err != nil {
		t.Fatal(err)
	}
	if x.Case != "reverse" || x.Value != -50 {
		t.Errorf("thrust extreme = %+v, want reverse with its observed -50", x)
	}
	if _, err := env.Extreme(0, Thrust, Min); err == nil {
		t.Error("unsigned channel returned a minimum")
	}
}

func TestPressureChannelCarriesWholeField(t *testing.T) {
	x := []float64{0.25, 0.75}
	low := &airfoil.Distribution{X: x, Suction: []float64{-0.5, -0.2}, Pressure: []float64{0.2, 0.1}}
	high := &airfoil.Distribution{X: x, Suction: []float64{-1.5, -0.6}, Pressure: []float64{0.3, 0.1}}

	a := resolved(0, "a", []float64{1, 1, 1})
	b := resolved(1, "b", []float64{2, 2, 2})
	a.Result.Sections[0].Pressure = low
	b.Result.Sections[0].Pressure = high
	env := Compute(radii, []Case{a, b}, DefaultTolerance)

	maxX, err := env.Extreme(0, Pressure, Max)
	if err != nil {
		t.Fatal(err)
	}
	if maxX.Case != "b" || maxX.Pressure != high {
		t.Errorf("pressure max = case %s, want b with its own distribution", maxX.Case)
	}
	minX, _ := env.Extreme(0, Pressure, Min)
	if minX.Case != "a" || minX.Pressure != low {
		t.Errorf("pressure min = case %s, want a with its own distribution", minX.Case)
	}
	flap, _ := env.Extreme(0, Flapwise, Max)
	if flap.Pressure != high {
		t.Error("flapwise extreme should carry the governing case's distribution")
	}

	if _, err := env.Extreme(1, Pressure, Max); !errors.Is(err, ErrNoExtreme) {
		t.Errorf("section without distributions: err = %v, want ErrNoExtreme", err)
	}
}

func TestExtremeErrors(t *testing.T) {
	env := Compute(radii, nil, DefaultTolerance)
	if _, err := env.Extreme(0, Flapwise, Max); !errors.Is(err, ErrNoExtreme) {
		t.Errorf("empty envelope: err = %v", err)
	}
	if _, err := env.Extreme(3, Flapwise, Max); err == nil {
		t.Error("out-of-range section accepted")
	}
	skipped := Compute(radii, []Case{{Index: 0, Name: "failed"}}, DefaultTolerance)
	if len(skipped.Cases) != 0 {
		t.Errorf("case without result contributed: %v", skipped.Cases)
	}
}

func TestParseChannel(t *testing.T) {
	for _, ch := range Channels() {
		got, err := ParseChannel(ch.String())
		if err != nil || got != ch {
			t.Errorf("ParseChannel(%q) = %v, %v", ch, got, err)
		}
	}
	if _, err := ParseChannel("lag"); err == nil {
		t.Error("unknown channel accepted")
	}
	if b, err := ParseBound("MIN"); err != nil || b != Min {
		t.Errorf("ParseBound(MIN) = %v, %v", b, err)
	}
}
