package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gorotor/internal/parse"
	"github.com/alexiusacademia/gorotor/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gorotor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
		fmt.Println("Rotor Blade Load Envelope Tool")
		fmt.Printf("Go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("Rotor solver output formats: %v\n", parse.Versions())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
