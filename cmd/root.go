package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gorotor/internal/config"
	"github.com/alexiusacademia/gorotor/internal/metrics"
	"github.com/alexiusacademia/gorotor/internal/version"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded before every command runs.
	cfg    = config.Default()
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "gorotor",
	Short: "Rotor Blade Load Envelope Tool",
	Long: `gorotor - Go Rotor Blade Load Envelope

A CLI tool that drives XROTOR and XFOIL to compute the load envelope
of a rotor blade over a set of operating conditions.

This tool helps rotor designers:
  - Build and cache airfoil polars and pressure distributions
  - Run every load case through the rotor solver concurrently
  - Resolve section loads, angles of attack and chordwise pressure
  - Reduce all cases to a per-section envelope of governing loads

Solver locations and defaults are read from gorotor.ini.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: exportMetrics,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   gorotor v%-47s║\n", version.Version)
		fmt.Println("  ║   Go Rotor Blade Load Envelope                            ║")
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Airfoil polars from XFOIL, cached by input signature")
		fmt.Println("    • Concurrent XROTOR load cases with per-case failure isolation")
		fmt.Println("    • Thrust, torque, bending and pressure envelopes per section")
		fmt.Println("    • Chordwise pressure of the governing case at any section")
		fmt.Println()
		fmt.Println("  Use 'gorotor --help' to see available commands.")
		fmt.Println()
		fmt.Println("  ─────────────────────────────────────────────────────────────")
		fmt.Printf("  Copyright © %s %s. All rights reserved.\n", version.Year, version.Author)
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides [log] level)")
	logger.SetOutput(os.Stderr)
}

// setup loads the configuration and applies its logging settings. A missing
// default file means defaults; a missing file named by --config is an error.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if _, err := os.Stat(configPath); err == nil || cmd.Flags().Changed("config") {
		loaded, err := config.Load(configPath, logger)
		if err != nil {
			return err
		}
		c = loaded
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Log.Apply(logger); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	cfg = c
	return nil
}

func exportMetrics(cmd *cobra.Command, args []string) error {
	if cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	logger.WithField("path", cfg.Metrics.Textfile).Debug("metrics written")
	return nil
}
