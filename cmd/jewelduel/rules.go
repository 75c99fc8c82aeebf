package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/jewel-duel/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective duel rules",
	Long: `Print the duel configuration after --config and --preset are applied.
The output is valid YAML and can be saved as a starting point for --config.

Examples:
  jewelduel rules
  jewelduel rules --preset blitz > blitz.yaml`,
	Args: cobra.NoArgs,
	Run:  runRules,
}

func runRules(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out, err := config.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(string(out))
}
