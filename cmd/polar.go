package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gorotor/internal/airfoil"
	"github.com/alexiusacademia/gorotor/internal/polardb"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

// sweepFlags are the airfoil analysis inputs shared by polar and interp. Both
// commands must agree on them to address the same database entry.
type sweepFlags struct {
	coords     string
	name       string
	reynolds   []float64
	designRe   float64
	alphaStart float64
	alphaStop  float64
	alphaInc   float64
	ncrit      float64
	iterLimit  int
}

func (f *sweepFlags) register(cmd *cobra.Command) {
	def := airfoil.DefaultAnalysisRequest()
	cmd.Flags().StringVar(&f.coords, "coords", "", "Airfoil coordinate file (XFOIL/Selig format) [required]")
	cmd.Flags().StringVar(&f.name, "name", "", "Airfoil name (default: name line of the file)")
	cmd.Flags().Float64SliceVar(&f.reynolds, "re", nil, "Reynolds numbers of the sweep [required]")
	cmd.Flags().Float64Var(&f.designRe, "design-re", 0, "Design Reynolds number (default: first --re)")
	cmd.Flags().Float64Var(&f.alphaStart, "alpha-start", def.AlphaStart, "First angle of attack (deg, <= 0)")
	cmd.Flags().Float64Var(&f.alphaStop, "alpha-stop", def.AlphaStop, "Last angle of attack (deg, >= 0)")
	cmd.Flags().Float64Var(&f.alphaInc, "alpha-inc", def.AlphaInc, "Angle of attack step (deg)")
	cmd.Flags().Float64Var(&f.ncrit, "ncrit", airfoil.DefaultNcrit, "Transition amplification factor")
	cmd.Flags().IntVar(&f.iterLimit, "iter", airfoil.DefaultIterLimit, "Viscous iteration limit")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("re")
}

// build loads the coordinates and returns the airfoil and its sweep.
func (f *sweepFlags) build() (*airfoil.Airfoil, airfoil.AnalysisRequest, error) {
	fileName, pts, err := airfoil.LoadCoordinates(f.coords)
	if err != nil {
		return nil, airfoil.AnalysisRequest{}, err
	}
	name := f.name
	if name == "" {
		name = fileName
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(f.coords), filepath.Ext(f.coords))
	}

	req := airfoil.AnalysisRequest{
		Reynolds:   f.reynolds,
		AlphaStart: f.alphaStart,
		AlphaStop:  f.alphaStop,
		AlphaInc:   f.alphaInc,
		Workers:    cfg.Solver.Workers,
	}
	if err := req.Validate(); err != nil {
		return nil, req, err
	}
	designRe := f.designRe
	if designRe <= 0 {
		designRe = f.reynolds[0]
	}

	a := airfoil.New(name, pts, designRe)
	a.Ncrit = f.ncrit
	a.IterLimit = f.iterLimit
	a.Logger = logger
	return a, req, nil
}

var polarFlags sweepFlags

var polarCmd = &cobra.Command{
	Use:   "polar",
	Short: "Compute or load an airfoil polar and print its rotor characteristics",
	Long: `Run XFOIL over the requested Reynolds numbers and angle-of-attack
sweep, or load the result from the polar database when the same inputs
were analysed before. Prints the characteristics the rotor solver uses
for each Reynolds number.

Examples:
  # NACA 4412 at two Reynolds numbers, default -20..20 deg sweep
  gorotor polar --coords naca4412.dat --re 3e5,5e5

  # Narrower, finer sweep
  gorotor polar --coords naca4412.dat --re 5e5 --alpha-start -5 --alpha-stop 12 --alpha-inc 0.1`,
	RunE: runPolar,
}

func init() {
	rootCmd.AddCommand(polarCmd)
	polarFlags.register(polarCmd)
}

func openPolarDB() (*polardb.DB, error) {
	return polardb.Open(cfg.Cache.Dir, cfg.Cache.MaxFiles, logger)
}

func xfoilRunner() solver.Runner {
	r := solver.NewXfoil(cfg.Solver.Xfoil, cfg.Solver.Timeout, logger)
	r.KeepWorkDir = cfg.Solver.KeepWorkDir
	return r
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPolar(cmd *cobra.Command, args []string) error {
	a, req, err := polarFlags.build()
	if err != nil {
		return err
	}
	db, err := openPolarDB()
	if err != nil {
		return err
	}
	ctx, cancel := interruptContext()
	defer cancel()

	hit, err := db.LoadOrCompute(ctx, a, req, xfoilRunner())
	if err != nil {
		return err
	}

	source := "computed with XFOIL"
	if hit {
		source = "loaded from database"
	}
	sig := polardb.RequestFor(a, req).Signature()

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     AIRFOIL POLAR - %s\n", strings.ToUpper(a.Name))
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Source:\t%s\n", source)
	fmt.Fprintf(w, "  Signature:\t%s\n", sig[:16])
	fmt.Fprintf(w, "  Database:\t%s\n", db.Dir())
	fmt.Fprintf(w, "  Polar points:\t%d\n", len(a.Polar()))
	fmt.Fprintf(w, "  Pressure curves:\t%d\n", len(a.PressureCurves()))
	g := airfoil.ProfileGeometry(a.Coordinates)
	fmt.Fprintf(w, "  Thickness (t/c):\t%.2f%% at x/c = %.3f\n", 100*g.ThicknessRatio(), (g.MaxThicknessAt-g.LeadingEdgeX)/g.Chord)
	fmt.Fprintf(w, "  Profile area:\t%.5f c²\n", g.Area/(g.Chord*g.Chord))
	w.Flush()
	fmt.Println()

	fmt.Println("ROTOR CHARACTERISTICS:")
	fmt.Println("───────────────────────────────────────────────────────────────")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Re\tα0 (deg)\tdCl/dα (1/rad)\tCl max\tCl min\tCd min\tCl@Cd min\tdCd/dCl²\tCm\t")
	for _, re := range req.Reynolds {
		rc, err := a.RotorCharacteristics(re)
		if err != nil {
			fmt.Fprintf(w, "%.3g\t%v\t\t\t\t\t\t\t\t\n", re, err)
			continue
		}
		fmt.Fprintf(w, "%.3g\t%.2f\t%.3f\t%.3f\t%.3f\t%.5f\t%.3f\t%.4f\t%.4f\t\n",
			re, rc.ZeroLiftAlpha, rc.LiftSlope, rc.ClMax, rc.ClMin, rc.CdMin, rc.ClAtCdMin, rc.DragCurvature, rc.Cm)
	}
	w.Flush()
	fmt.Println()
	return nil
}
