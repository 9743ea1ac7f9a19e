package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poisonset/poisonset/poison/manifest"
)

// removeCmd deletes the dataset entries in --dataset-dir
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an existing poisoned dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if err := manifest.Remove(datasetDir, logrus.StandardLogger()); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
