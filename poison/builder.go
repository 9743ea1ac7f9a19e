package poison

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/poisonset/poisonset/poison/trace"
)

// Metadata is the provenance record persisted once per materialized dataset.
type Metadata struct {
	PoisonType  string `json:"poisonType"`
	Params      Params `json:"params"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Sink persists materialized samples and the dataset metadata.
type Sink interface {
	WriteSample(partition string, index int, img *Image, label int) error
	WriteMetadata(meta Metadata) error
}

// Result summarizes a finished materialization run.
type Result struct {
	PoisonType   string
	RemapTable   []int // nil when labels were kept
	InitialQuota map[int]int
	FinalQuota   map[int]int
	// Transformed maps partition → working label → number of poisoned samples.
	Transformed map[string]map[int]int
	Written     map[string]int
}

// TransformedCount returns the number of poisoned samples in a partition.
func (r *Result) TransformedCount(partition string) int {
	total := 0
	for _, n := range r.Transformed[partition] {
		total += n
	}
	return total
}

// Builder drives one end-to-end materialization: remap, poison, persist.
type Builder struct {
	params Params
	sink   Sink
	rng    *PartitionedRNG
	trace  *trace.Recorder
	logger logrus.FieldLogger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRNG overrides the random handle derived from params.Seed. The handle
// feeds both the strategy and the label remap.
func WithRNG(rng *PartitionedRNG) BuilderOption {
	return func(b *Builder) { b.rng = rng }
}

// WithTrace records every strategy decision into rec.
func WithTrace(rec *trace.Recorder) BuilderOption {
	return func(b *Builder) { b.trace = rec }
}

// WithLogger sets the logger; defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder writing into sink.
func NewBuilder(params Params, sink Sink, opts ...BuilderOption) *Builder {
	b := &Builder{
		params: params,
		sink:   sink,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = NewPartitionedRNG(NewRunKey(params.Seed))
	}
	return b
}

// Build materializes ds: train then test, every sample in original order,
// followed by the metadata record. Any sink error aborts the run; output
// already written stays on disk.
func (b *Builder) Build(ds *Dataset) (*Result, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if err := b.params.Validate(ds.NumClasses); err != nil {
		return nil, err
	}

	remap := IdentityRemap(ds.NumClasses)
	if b.params.RemapSeed != 0 {
		remap = NewLabelRemap(ds.NumClasses, b.rng.ForSubsystem(RemapSubsystem(b.params.RemapSeed)))
		b.logger.Infof("new class ordering: %v", remap.Table())
		// Quotas are keyed by original labels while the strategy sees remapped ones.
		b.logger.Warn("label remap is active: quotas are computed on original labels but consumed on remapped labels")
	}

	strategy, err := NewStrategy(b.params.Method, ds, b.params, b.rng.ForSubsystem(SubsystemPoison))
	if err != nil {
		return nil, err
	}

	result := &Result{
		PoisonType:   strategy.Name(),
		InitialQuota: strategy.Quota().Snapshot(),
		Transformed:  make(map[string]map[int]int),
		Written:      make(map[string]int),
	}
	if !remap.IsIdentity() {
		result.RemapTable = remap.Table()
	}

	for _, name := range PartitionOrder {
		part := ds.Partition(name)
		poisonPass := name == PartitionTrain || b.params.PoisonTestSet
		switch {
		case name == PartitionTrain:
			b.logger.Infof("transforming train images: %v", strategy.Quota().Snapshot())
		case poisonPass:
			b.logger.Infof("transforming all test images, %d in total", part.Len())
		default:
			b.logger.Info("saving test images without transform")
		}

		counts := make(map[int]int)
		result.Transformed[name] = counts
		for idx, sample := range part.Samples {
			img, label := sample.Image.Clone(), remap.Apply(sample.Label)
			if poisonPass {
				var d Decision
				img, label, d = strategy.Poison(img, label)
				if d.Applied {
					counts[label]++
					b.logger.Debugf("%s[%d] class %d: alpha=%v reference=%d", name, idx, label, d.Alpha, d.Reference)
				}
				b.trace.Record(trace.PoisonRecord{
					Partition: name,
					Index:     idx,
					Label:     label,
					Applied:   d.Applied,
					Alpha:     d.Alpha,
					Reference: d.Reference,
				})
			}
			if err := b.sink.WriteSample(name, idx, img, label); err != nil {
				return nil, fmt.Errorf("writing %s[%d]: %w", name, idx, err)
			}
			result.Written[name]++
		}
	}

	if err := b.sink.WriteMetadata(Metadata{PoisonType: strategy.Name(), Params: b.params}); err != nil {
		return nil, fmt.Errorf("writing metadata: %w", err)
	}
	result.FinalQuota = strategy.Quota().Snapshot()
	return result, nil
}
