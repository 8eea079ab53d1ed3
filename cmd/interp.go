package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gorotor/internal/diagram"
	"github.com/alexiusacademia/gorotor/internal/polardb"
)

var (
	interpFlags  sweepFlags
	interpAt     float64
	interpAlphas []float64
	interpCp     bool
)

var interpCmd = &cobra.Command{
	Use:   "interp",
	Short: "Interpolate coefficients from a stored airfoil polar",
	Long: `Look up the polar stored for an airfoil and sweep, then interpolate
Cl, Cd, Cm and transition locations at arbitrary Reynolds numbers and
angles of attack. Queries outside the sampled grid are clamped and
marked as extrapolated.

The sweep flags must match the ones the polar was computed with.

Examples:
  gorotor interp --coords naca4412.dat --re 3e5,5e5 --at 4e5 --alpha 2,4.5,7

  # Also draw the chordwise pressure distribution at the first alpha
  gorotor interp --coords naca4412.dat --re 3e5,5e5 --at 4e5 --alpha 4 --cp`,
	RunE: runInterp,
}

func init() {
	rootCmd.AddCommand(interpCmd)
	interpFlags.register(interpCmd)
	interpCmd.Flags().Float64Var(&interpAt, "at", 0, "Reynolds number to interpolate at (default: design Reynolds number)")
	interpCmd.Flags().Float64SliceVar(&interpAlphas, "alpha", nil, "Angles of attack (deg) [required]")
	interpCmd.Flags().BoolVar(&interpCp, "cp", false, "Draw the pressure distribution at the first angle")
	interpCmd.MarkFlagRequired("alpha")
}

func runInterp(cmd *cobra.Command, args []string) error {
	a, req, err := interpFlags.build()
	if err != nil {
		return err
	}
	db, err := openPolarDB()
	if err != nil {
		return err
	}
	e, err := db.Load(polardb.RequestFor(a, req).Signature())
	if errors.Is(err, polardb.ErrNotFound) {
		return fmt.Errorf("no stored polar for %s with this sweep; run 'gorotor polar' first", a.Name)
	}
	if err != nil {
		return err
	}
	if err := e.Apply(a); err != nil {
		return err
	}

	re := interpAt
	if re <= 0 {
		re = a.DesignReynolds
	}

	fmt.Println()
	fmt.Printf("POLAR INTERPOLATION - %s at Re = %.4g\n", a.Name, re)
	fmt.Println("───────────────────────────────────────────────────────────────")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "α (deg)\tCl\tCd\tCdp\tCm\tXtr top\tXtr bot\t\t")
	extrapolated := 0
	for _, alpha := range interpAlphas {
		c, err := a.Coefficients(re, alpha)
		if err != nil {
			return err
		}
		mark := ""
		if c.Extrapolated {
			mark = "⚠ extrapolated"
			extrapolated++
		}
		fmt.Fprintf(w, "%.2f\t%.4f\t%.5f\t%.5f\t%.4f\t%.3f\t%.3f\t%s\t\n",
			alpha, c.Cl, c.Cd, c.Cdp, c.Cm, c.XtrTop, c.XtrBottom, mark)
	}
	w.Flush()
	if extrapolated > 0 {
		fmt.Printf("\n  %d of %d queries lie outside the sampled polar.\n", extrapolated, len(interpAlphas))
	}

	if interpCp {
		if !a.HasPressure() {
			return fmt.Errorf("stored polar for %s has no pressure distributions", a.Name)
		}
		d, err := a.CpVsX(re, interpAlphas[0])
		if err != nil {
			return err
		}
		fmt.Print(diagram.DrawPressureChart(d, 60, 18))
	}
	fmt.Println()
	return nil
}
