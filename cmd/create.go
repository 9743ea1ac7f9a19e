package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/poisonset/poisonset/poison"
	"github.com/poisonset/poisonset/poison/catalog"
	"github.com/poisonset/poisonset/poison/manifest"
	"github.com/poisonset/poisonset/poison/source"
	"github.com/poisonset/poisonset/poison/trace"
)

var (
	// Clean dataset input
	sourceKind string // Clean dataset format
	sourceDir  string // Directory holding the clean dataset
	numClasses int    // Label space size; 0 infers it from the source

	// Poisoning parameters
	poisonMethod  string  // Strategy selector
	ratio         float64 // Fraction of each target class to poison
	opacity       float64 // Pattern intensity or blend weight
	variance      float64 // Width of the uniform jitter around opacity
	targetClasses string  // Comma separated target classes
	sourceClass   int     // Reference class for blend-random
	subsetSize    int     // Reference pool size for blend-random (0 = whole class)
	seed          int64   // Seed for all poisoning randomness
	remapSeed     int64   // Seed for the label permutation (0 = keep labels)
	poisonTestSet bool    // Poison the test partition with leftover quota
	overwrite     bool    // Replace an existing dataset

	configPath string // YAML parameter file
	traceLevel string // Decision trace level
	traceOut   string // File the decision trace is written to
)

// createCmd materializes a poisoned copy of a clean dataset
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a poisoned dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		params, err := resolveParams(cmd.Flags())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := runCreate(params); err != nil {
			if errors.Is(err, manifest.ErrDatasetExists) {
				logrus.Error(err)
				return
			}
			logrus.Fatalf("%v", err)
		}
	},
}

// resolveParams builds the run parameters: the --config file (or the
// defaults) as a base, overridden by every flag set on the command line.
// A method chosen by neither falls back to white-square with a warning.
func resolveParams(flags *pflag.FlagSet) (poison.Params, error) {
	params := poison.DefaultParams()
	params.Method = ""
	if configPath != "" {
		loaded, err := poison.LoadParams(configPath)
		if err != nil {
			return params, err
		}
		params = *loaded
		logrus.Infof("Loaded poison params from %s", configPath)
	}

	if flags.Changed("poison-method") {
		params.Method = poisonMethod
	}
	if params.Method == "" {
		logrus.Warnf("No poison type provided, using %s", poison.MethodWhiteSquare)
		params.Method = poison.MethodWhiteSquare
	}
	if flags.Changed("ratio") {
		params.Ratio = ratio
	}
	if flags.Changed("opacity") {
		params.Opacity = opacity
	}
	if flags.Changed("variance") {
		params.Variance = variance
	}
	if flags.Changed("target-classes") {
		classes, err := poison.ParseTargetClasses(targetClasses)
		if err != nil {
			return params, err
		}
		params.TargetClasses = classes
	}
	if flags.Changed("source-class") {
		c := sourceClass
		params.SourceClass = &c
	}
	if flags.Changed("subset-size") {
		params.SubsetSize = subsetSize
	}
	if flags.Changed("seed") {
		params.Seed = seed
	}
	if flags.Changed("remap-seed") {
		params.RemapSeed = remapSeed
	}
	if flags.Changed("poison-test-set") {
		params.PoisonTestSet = poisonTestSet
	}
	if flags.Changed("overwrite") {
		params.Overwrite = overwrite
	}
	return params, nil
}

// runCreate loads the clean source, claims the dataset directory and
// materializes the poisoned dataset into it.
func runCreate(params poison.Params) error {
	if !trace.IsValidLevel(traceLevel) {
		return fmt.Errorf("%w: unknown trace level %q", poison.ErrInvalidConfig, traceLevel)
	}

	ds, err := source.Load(sourceKind, sourceDir, numClasses)
	if err != nil {
		return err
	}
	logrus.Infof("Loaded %s dataset: %d train, %d test samples, %d classes",
		sourceKind, ds.Train.Len(), ds.Test.Len(), ds.NumClasses)
	// Must run before Claim.
	if err := params.Validate(ds.NumClasses); err != nil {
		return err
	}

	logger := logrus.StandardLogger()
	if err := manifest.Claim(datasetDir, params.Overwrite, logger); err != nil {
		return err
	}
	store, err := manifest.Open(datasetDir, manifest.WithLogger(logger))
	if err != nil {
		return err
	}

	level := trace.Level(traceLevel)
	if level == "" && traceOut != "" {
		level = trace.LevelDecisions
	}
	rec := trace.NewRecorder(level)

	logrus.Infof("Dataset params: %+v", describeParams(params))
	res, buildErr := poison.NewBuilder(params, store, poison.WithTrace(rec), poison.WithLogger(logger)).Build(ds)
	if err := store.Close(); err != nil && buildErr == nil {
		buildErr = err
	}
	if buildErr != nil {
		return buildErr
	}

	for _, name := range poison.PartitionOrder {
		logrus.Infof("%s: wrote %d samples, poisoned %d %v",
			name, res.Written[name], res.TransformedCount(name), res.Transformed[name])
	}
	if rec.Enabled() {
		s := trace.Summarize(rec)
		logrus.Infof("Trace: %d decisions, %d applied, alpha mean %.4f stddev %.4f range [%.4f, %.4f]",
			s.TotalDecisions, s.AppliedCount, s.AlphaMean, s.AlphaStdDev, s.AlphaMin, s.AlphaMax)
	}
	if traceOut != "" {
		if err := writeTrace(rec, traceOut); err != nil {
			return err
		}
		logrus.Infof("Decision trace written to %s", traceOut)
	}
	if catalogDB != "" {
		if err := recordCatalog(res); err != nil {
			return err
		}
	}
	return nil
}

func writeTrace(rec *trace.Recorder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := rec.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// recordCatalog appends the freshly written dataset to the catalog.
func recordCatalog(res *poison.Result) error {
	meta, err := manifest.ReadMetadata(datasetDir)
	if err != nil {
		return err
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

	id, err := c.Record(catalog.Entry{
		Fingerprint:   meta.Fingerprint,
		Root:          root,
		PoisonType:    meta.PoisonType,
		Params:        meta.Params,
		TrainPoisoned: res.TransformedCount(poison.PartitionTrain),
		TestPoisoned:  res.TransformedCount(poison.PartitionTest),
	})
	if err != nil {
		return fmt.Errorf("recording catalog entry: %w", err)
	}
	logrus.Infof("Catalog entry %d recorded in %s", id, catalogDB)
	return nil
}

// describeParams renders params for logging with the source class
// dereferenced.
func describeParams(p poison.Params) map[string]string {
	src := "none"
	if p.SourceClass != nil {
		src = strconv.Itoa(*p.SourceClass)
	}
	return map[string]string{
		"method":          p.Method,
		"ratio":           strconv.FormatFloat(p.Ratio, 'g', -1, 64),
		"opacity":         strconv.FormatFloat(p.Opacity, 'g', -1, 64),
		"variance":        strconv.FormatFloat(p.Variance, 'g', -1, 64),
		"target_classes":  fmt.Sprint(p.TargetClasses),
		"source_class":    src,
		"subset_size":     strconv.Itoa(p.SubsetSize),
		"seed":            strconv.FormatInt(p.Seed, 10),
		"remap_seed":      strconv.FormatInt(p.RemapSeed, 10),
		"poison_test_set": strconv.FormatBool(p.PoisonTestSet),
	}
}

func init() {
	createCmd.Flags().StringVar(&sourceKind, "source", source.KindCIFAR10, "Clean dataset format (cifar10, cifar100, manifest)")
	createCmd.Flags().StringVar(&sourceDir, "source-dir", "data", "Directory holding the clean dataset")
	createCmd.Flags().IntVar(&numClasses, "num-classes", 0, "Number of classes (0 infers it from the source)")

	createCmd.Flags().StringVar(&poisonMethod, "poison-method", poison.MethodWhiteSquare, "Poison strategy (white-square, blend-one-image, blend-random)")
	createCmd.Flags().Float64Var(&ratio, "ratio", 1.0, "Fraction of each target class to poison")
	createCmd.Flags().Float64Var(&opacity, "opacity", 0.5, "Pattern intensity or blend weight in [0,1]")
	createCmd.Flags().Float64Var(&variance, "variance", 0, "Width of the uniform jitter applied to the blend weight")
	createCmd.Flags().StringVar(&targetClasses, "target-classes", "", "Comma separated target classes, e.g. 1,2")
	createCmd.Flags().IntVar(&sourceClass, "source-class", 0, "Class providing the blend-random reference images")
	createCmd.Flags().IntVar(&subsetSize, "subset-size", 0, "Number of reference images for blend-random (0 uses the whole class)")
	createCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the poisoning randomness")
	createCmd.Flags().Int64Var(&remapSeed, "remap-seed", 0, "Seed for a random class permutation (0 keeps labels)")
	createCmd.Flags().BoolVar(&poisonTestSet, "poison-test-set", false, "Poison test images with the quota left after the train pass")
	createCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing dataset in --dataset-dir")

	createCmd.Flags().StringVar(&configPath, "config", "", "YAML file with poison params; explicit flags take precedence")
	createCmd.Flags().StringVar(&traceLevel, "trace", "", "Decision trace level (none, decisions, applied)")
	createCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the decision trace as YAML to this file")

	rootCmd.AddCommand(createCmd)
}
