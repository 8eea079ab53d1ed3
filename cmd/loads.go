package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gorotor/internal/blade"
	"github.com/alexiusacademia/gorotor/internal/diagram"
	"github.com/alexiusacademia/gorotor/internal/envelope"
	"github.com/alexiusacademia/gorotor/internal/loadcase"
	"github.com/alexiusacademia/gorotor/internal/solver"
)

var (
	loadsProject string
	loadsCase    string
	loadsSection int
	loadsChannel string
	loadsBound   string
	loadsChart   bool
	loadsPlot    string
	loadsCpPlot  string
)

var loadsCmd = &cobra.Command{
	Use:   "loads",
	Short: "Run every load case of a rotor project and print the load envelope",
	Long: `Build the airfoil polars of a rotor project (from the polar database
when possible), run every load case through XROTOR concurrently and
reduce the resolved cases to a per-section envelope.

A failing load case does not stop the others; failures are listed in the
report and the envelope is built from the cases that resolved.

Channels: thrust, torque (largest magnitude), flapwise, edgewise and
pressure (maximum and minimum; pressure is the section normal-force
coefficient of the chordwise distribution).

Examples:
  # Envelope of all load cases
  gorotor loads --project rotor.json

  # Flapwise chart and plot
  gorotor loads --project rotor.json --chart --channel flapwise --plot out/flapwise.png

  # Pressure at section 3 of the case governing the minimum edgewise moment
  gorotor loads --project rotor.json --section 3 --channel edgewise --bound min

  # Pressure at section 3 of one load case
  gorotor loads --project rotor.json --case climb --section 3 --cp-plot out/cp.png`,
	RunE: runLoads,
}

func init() {
	rootCmd.AddCommand(loadsCmd)

	loadsCmd.Flags().StringVarP(&loadsProject, "project", "p", "", "Rotor project file (JSON) [required]")
	loadsCmd.Flags().StringVar(&loadsCase, "case", "", "Print the section results of one load case")
	loadsCmd.Flags().IntVar(&loadsSection, "section", -1, "Print the pressure distribution at this section index")
	loadsCmd.Flags().StringVar(&loadsChannel, "channel", "flapwise", "Envelope channel for --chart, --plot and --section")
	loadsCmd.Flags().StringVar(&loadsBound, "bound", "max", "Envelope bound for --chart and --section (max or min)")
	loadsCmd.Flags().BoolVar(&loadsChart, "chart", false, "Draw the channel along the span")
	loadsCmd.Flags().StringVar(&loadsPlot, "plot", "", "Export the channel envelope plot to this file")
	loadsCmd.Flags().StringVar(&loadsCpPlot, "cp-plot", "", "Export the --section pressure distribution to this file")

	loadsCmd.MarkFlagRequired("project")
}

func channelUnit(c envelope.Channel) string {
	switch c {
	case envelope.Thrust:
		return "N"
	case envelope.Pressure:
		return "Cn"
	}
	return "N·m"
}

// prepare applies the configuration to the project's propeller and fills the
// airfoil tables. An airfoil whose polar cannot be built is left empty; the
// sections using it fail during load calculation.
func prepare(ctx context.Context, project *blade.Project) error {
	prop := project.Propeller
	format, err := cfg.Format.Resolve()
	if err != nil {
		return err
	}
	runner := solver.NewXrotor(cfg.Solver.Xrotor, cfg.Solver.Timeout, logger)
	runner.KeepWorkDir = cfg.Solver.KeepWorkDir

	prop.Runner = runner
	prop.Format = format
	prop.Workers = cfg.Solver.Workers
	prop.Tolerance = cfg.Envelope.Tolerance
	prop.Logger = logger

	db, err := openPolarDB()
	if err != nil {
		return err
	}
	xfoil := xfoilRunner()
	for _, a := range prop.Airfoils() {
		a.Logger = logger
		req := project.Analyses[a.Name]
		req.Workers = cfg.Solver.Workers
		hit, err := db.LoadOrCompute(ctx, a, req, xfoil)
		if err != nil {
			logger.WithFields(logrus.Fields{"airfoil": a.Name, "error": err}).Warn("airfoil has no polar")
			continue
		}
		logger.WithFields(logrus.Fields{"airfoil": a.Name, "cached": hit}).Debug("airfoil ready")
	}
	return nil
}

func runLoads(cmd *cobra.Command, args []string) error {
	channel, err := envelope.ParseChannel(loadsChannel)
	if err != nil {
		return err
	}
	bound, err := envelope.ParseBound(loadsBound)
	if err != nil {
		return err
	}
	if bound == envelope.Min && !channel.Signed() {
		return fmt.Errorf("channel %s keeps no minimum", channel)
	}

	project, err := blade.LoadFromFile(loadsProject)
	if err != nil {
		return err
	}
	prop := project.Propeller

	ctx, cancel := interruptContext()
	defer cancel()
	if err := prepare(ctx, project); err != nil {
		return err
	}
	report, err := prop.CalcLoads(ctx)
	if report == nil {
		return err
	}
	printReport(prop, report)

	if loadsCase != "" {
		if err := printCase(prop, loadsCase); err != nil {
			return err
		}
	}
	if loadsSection >= 0 {
		var src blade.Source = blade.FromEnvelope{Channel: channel, Bound: bound}
		if loadsCase != "" {
			src = blade.FromCase{Name: loadsCase}
		}
		if err := printPressure(prop, loadsSection, src); err != nil {
			return err
		}
	}
	if loadsChart {
		fmt.Print(spanChart(report.Envelope, channel, bound))
	}
	if loadsPlot != "" {
		if err := exportEnvelope(report.Envelope, channel, loadsPlot); err != nil {
			return err
		}
		fmt.Printf("  Envelope plot written to %s\n", loadsPlot)
	}

	if err != nil {
		return err
	}
	if len(report.Resolved) == 0 {
		return errors.New("no load case resolved")
	}
	return nil
}

func printReport(prop *blade.Propeller, report *blade.Report) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     ROTOR LOAD ENVELOPE - %s\n", strings.ToUpper(prop.Name))
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	fmt.Print(diagram.DrawSummaryBox("LOAD CALCULATION", []string{
		fmt.Sprintf("Blades: %d   Tip: %.3f m   Hub: %.3f m", prop.Blades, prop.TipRadius, prop.HubRadius),
		fmt.Sprintf("Sections: %d   Load cases: %d", len(prop.Sections()), len(prop.LoadCases())),
		fmt.Sprintf("Resolved: %d   Failed: %d   Section failures: %d",
			len(report.Resolved), len(report.Failures), len(report.SectionFailures)),
		fmt.Sprintf("Envelope ties: %d   Elapsed: %s", report.Envelope.Ties(), report.Elapsed.Round(time.Millisecond)),
	}))
	fmt.Println()

	if len(report.Failures) > 0 {
		fmt.Println("FAILED LOAD CASES:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  %s\t%s\t%v\n", f.Case, f.Kind, f.Err)
		}
		w.Flush()
		fmt.Println()
	}
	if len(report.SectionFailures) > 0 {
		fmt.Println("UNRESOLVED SECTIONS:")
		fmt.Println("───────────────────────────────────────────────────────────────")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, f := range report.SectionFailures {
			fmt.Fprintf(w, "  %s\t#%d\tr = %.3f m\t%v\n", f.Case, f.Section, f.Radius, f.Err)
		}
		w.Flush()
		fmt.Println()
	}

	env := report.Envelope
	for _, c := range envelope.Channels() {
		fmt.Printf("%s (%s):\n", strings.ToUpper(c.String()), channelUnit(c))
		fmt.Println("───────────────────────────────────────────────────────────────")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		header := "  #\tr (m)"
		for _, b := range c.Bounds() {
			header += "\t" + b.String() + "\tcase"
		}
		fmt.Fprintln(w, header)
		for i, s := range env.Sections {
			row := fmt.Sprintf("  %d\t%.3f", i, s.Radius)
			for _, b := range c.Bounds() {
				x, ok := s.Extreme(c, b)
				if !ok {
					row += "\t-\t-"
					continue
				}
				name := x.Case
				if len(x.Ties) > 0 {
					name += " (tied: " + strings.Join(x.Ties, ", ") + ")"
				}
				row += fmt.Sprintf("\t%.4g\t%s", x.Value, name)
			}
			fmt.Fprintln(w, row)
		}
		w.Flush()
		fmt.Println()
	}
}

func printCase(prop *blade.Propeller, name string) error {
	c, ok := prop.LoadCase(name)
	if !ok {
		return fmt.Errorf("no load case %q", name)
	}
	fmt.Printf("LOAD CASE %s (%s):\n", c.Name, c.Status())
	fmt.Println("───────────────────────────────────────────────────────────────")
	if c.Status() != loadcase.Resolved {
		fmt.Printf("  %v\n\n", c.Failure())
		return nil
	}
	r := c.Result()

	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s:\t%.5g\n", k, r.Values[k])
	}
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tr (m)\tα (deg)\tRe\tMach\tCl\tCd\tCm\tT (N)\tQ (N·m)\tMflap\tMedge\t\t")
	for _, s := range r.Sections {
		var flags []string
		if s.Stalled {
			flags = append(flags, "stalled")
		}
		if s.Extrapolated {
			flags = append(flags, "extrapolated")
		}
		if s.Err != nil {
			flags = append(flags, s.Err.Error())
		}
		fmt.Fprintf(w, "%d\t%.3f\t%.2f\t%.3g\t%.3f\t%.3f\t%.4f\t%.4f\t%.4g\t%.4g\t%.4g\t%.4g\t%s\t\n",
			s.Section, s.Radius, s.Alpha, s.Reynolds, s.Mach, s.Cl, s.Cd, s.Cm,
			s.Thrust, s.Torque, s.Flapwise, s.Edgewise, strings.Join(flags, ", "))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func printPressure(prop *blade.Propeller, section int, src blade.Source) error {
	d, caseName, err := prop.Distribution(section, src)
	if err != nil {
		return err
	}
	fmt.Printf("PRESSURE DISTRIBUTION at section %d, %s (case %s):\n", section, src, caseName)
	fmt.Println("───────────────────────────────────────────────────────────────")
	fmt.Print(diagram.DrawPressureChart(d, 60, 18))
	fmt.Printf("  Cn = %.4f   Cp min = %.3f\n\n", d.NormalForce(), d.MinCp())

	if loadsCpPlot != "" {
		title := fmt.Sprintf("%s section %d", prop.Name, section)
		if err := diagram.ExportPressurePlot(title, []diagram.PressureSeries{{Label: caseName, Distribution: d}}, loadsCpPlot); err != nil {
			return err
		}
		fmt.Printf("  Pressure plot written to %s\n", loadsCpPlot)
	}
	return nil
}

func spanChart(env *envelope.Envelope, c envelope.Channel, b envelope.Bound) string {
	bars := make([]diagram.Bar, 0, len(env.Sections))
	for i, x := range env.Column(c, b) {
		note := x.Case
		if note == "" {
			note = "(no value)"
		}
		bars = append(bars, diagram.Bar{
			Label: fmt.Sprintf("r=%.3f", env.Sections[i].Radius),
			Value: x.Value,
			Note:  note,
		})
	}
	return diagram.DrawSpanChart(fmt.Sprintf("%s %s", c, b), channelUnit(c), bars)
}

func exportEnvelope(env *envelope.Envelope, c envelope.Channel, filename string) error {
	var series []diagram.SpanSeries
	for _, b := range c.Bounds() {
		s := diagram.SpanSeries{Label: b.String()}
		for i, x := range env.Column(c, b) {
			if x.Case == "" {
				continue
			}
			s.Points = append(s.Points, diagram.SpanPoint{Radius: env.Sections[i].Radius, Value: x.Value, Case: x.Case})
		}
		series = append(series, s)
	}
	return diagram.ExportEnvelopePlot(fmt.Sprintf("%s envelope", c), channelUnit(c), series, filename)
}
