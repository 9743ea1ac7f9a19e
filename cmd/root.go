package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	datasetDir string // Root directory of the materialized dataset
	catalogDB  string // Optional SQLite provenance catalog
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "poisonset",
	Short: "Materialize poisoned image classification datasets",
}

// setupLogging applies the --log level to the standard logger.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&datasetDir, "dataset-dir", "data/cifar_10_poisoned", "Directory the poisoned dataset is written to")
	rootCmd.PersistentFlags().StringVar(&catalogDB, "catalog", "", "Path to a SQLite catalog recording every materialized dataset (disabled when empty)")
}
