package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/poisonset/poisonset/poison"
	"github.com/poisonset/poisonset/poison/catalog"
	"github.com/poisonset/poisonset/poison/manifest"
)

// statusCmd reports what is currently materialized in --dataset-dir
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the poison type and params of an existing dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if err := printStatus(os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// printStatus writes the dataset metadata, per-partition sample counts and,
// when a catalog is configured, the latest catalog entry for the directory.
func printStatus(w io.Writer) error {
	current, err := manifest.Current(datasetDir)
	if err != nil {
		return err
	}
	if current == "" {
		fmt.Fprintf(w, "No poisoned dataset in %s\n", datasetDir)
		return nil
	}
	meta, err := manifest.ReadMetadata(datasetDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "=== Poisoned Dataset ===")
	fmt.Fprintf(w, "Directory   : %s\n", datasetDir)
	fmt.Fprintf(w, "Poison type : %s\n", meta.PoisonType)
	if meta.Fingerprint != "" {
		fmt.Fprintf(w, "Fingerprint : %s\n", meta.Fingerprint)
	}
	for _, name := range poison.PartitionOrder {
		records, err := manifest.ReadManifest(datasetDir, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-12s: %d samples\n", name, len(records))
	}

	params, err := yaml.Marshal(meta.Params)
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	fmt.Fprintln(w, "Params:")
	fmt.Fprint(w, string(params))

	if catalogDB == "" {
		return nil
	}
	root, err := filepath.Abs(datasetDir)
	if err != nil {
		return err
	}
	c, err := catalog.Open(catalogDB)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer c.Close()
	entry, err := c.Latest(root)
	if errors.Is(err, catalog.ErrNotFound) {
		logrus.Infof("No catalog entry for %s", root)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Catalog     : entry %d created %s, poisoned train=%d test=%d\n",
		entry.ID, entry.CreatedAt, entry.TrainPoisoned, entry.TestPoisoned)
	if entry.Fingerprint != meta.Fingerprint {
		logrus.Warnf("Catalog fingerprint %s does not match dataset %s", entry.Fingerprint, meta.Fingerprint)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
