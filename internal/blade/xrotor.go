package blade

import (
	"github.com/sirupsen/logrus"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// Files written by the rotor solver for every load case.
const (
	operFile = "oper.txt"
	bendFile = "bend.txt"
)

// operIterations is the iteration limit set in the OPER menu.
const operIterations = 200

// aeroInput is the AERO menu data of one section, or nil when the section's
// airfoil could not provide it.
type aeroInput struct {
	radiusRatio float64
	chars       airfoil.RotorCharacteristics
}

// aeroInputs derives the AERO menu data of every section. Sections whose
// airfoils are unavailable are reported in failed and left to the solver's
// default aerodynamics.
func (p *Propeller) aeroInputs() (inputs []*aeroInput, failed map[int]error) {
	inputs = make([]*aeroInput, len(p.sections))
	failed = make(map[int]error)
	for i, s := range p.sections {
		src, err := p.source(s)
		if err == nil {
			var rc airfoil.RotorCharacteristics
			if rc, err = src.characteristics(); err == nil {
				inputs[i] = &aeroInput{radiusRatio: s.Radius / p.TipRadius, chars: rc}
				continue
			}
		}
		failed[i] = err
		p.logger().WithFields(logrus.Fields{
			"section": i,
			"profile": s.Profile.String(),
			"error":   err,
		}).Warn("section has no aerodynamic data")
	}
	return inputs, failed
}

// xrotorScript builds the rotor solver session for one load case: geometry,
// section aerodynamics, the operating point, and the structural evaluation.
func (p *Propeller) xrotorScript(c *loadcase.LoadCase, aero []*aeroInput) *solver.Script {
	x := solver.NewScript()
	for _, l := range c.Atmosphere.Lines() {
		x.Run(l)
	}

	x.Run("arbi")
	x.Run(p.Blades)
	x.Run(c.Speed)
	x.Run(p.TipRadius)
	x.Run(p.HubRadius)
	x.Run(len(p.sections))
	rows := make([][]float64, len(p.sections))
	for i, s := range p.sections {
		rows[i] = []float64{s.Radius / p.TipRadius, s.Chord / p.TipRadius, s.Twist}
	}
	x.RunArray(rows)
	x.Run("n")

	added := 0
	for _, in := range aero {
		if in == nil {
			continue
		}
		rc := in.chars
		x.Run("aero")
		x.Run("new")
		x.Run(in.radiusRatio)
		x.Run("edit")
		x.Run(added + 2)
		x.Runf("1 %g", rc.ZeroLiftAlpha)
		x.Runf("2 %g", rc.LiftSlope)
		x.Runf("4 %g", rc.ClMax)
		x.Runf("5 %g", rc.ClMin)
		x.Runf("7 %g", rc.CdMin)
		x.Runf("8 %g", rc.ClAtCdMin)
		x.Runf("9 %g", rc.DragCurvature)
		x.Runf("10 %g", rc.Reynolds)
		x.Runf("12 %g", rc.Cm)
		x.Run("")
		x.Run("")
		added++
	}

	x.Run("oper")
	x.Run("iter")
	x.Run(operIterations)
	if c.Pitch != 0 {
		x.Runf("angl %g", c.Pitch)
	}
	for _, l := range c.Operating().Lines() {
		x.Run(l)
	}
	x.Run("writ " + operFile)
	x.Run("o")
	x.Run("")

	x.Run("bend")
	x.Run("eval")
	x.Run("writ " + bendFile)
	x.Run("o")
	x.Run("")
	x.Run("quit")
	return x
}

func (p *Propeller) xrotorConfig(c *loadcase.LoadCase, aero []*aeroInput) solver.Config {
	return solver.Config{
		Name:    c.Name,
		Family:  solver.Xrotor,
		Script:  p.xrotorScript(c, aero),
		Outputs: []string{operFile, bendFile},
	}
}
