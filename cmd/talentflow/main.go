package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "talentflow",
	Short:         "Local hiring pipeline: jobs, candidates and assessments",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(assessmentsCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	// A missing .env is normal; anything else is worth a warning.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		printWarning("could not load .env: %v", err)
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
