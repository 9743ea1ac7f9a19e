// Package testutil provides shared test infrastructure for the poison
// packages: synthetic datasets, an in-memory sink and comparison helpers.
package testutil

import (
	"errors"
	"math"
	"testing"

	"github.com/poisonset/poisonset/poison"
)

// Default shape of synthetic images.
const (
	Height   = 4
	Width    = 4
	Channels = 3
)

// ErrSinkFull is returned by a MemorySink once its write budget is spent.
var ErrSinkFull = errors.New("sink full")

// Repeat returns a label sequence with count copies of each label, grouped in
// the order given: Repeat(0, 2, 3, 1) = [0 0 3].
func Repeat(labelCounts ...int) []int {
	var labels []int
	for i := 0; i+1 < len(labelCounts); i += 2 {
		for n := 0; n < labelCounts[i+1]; n++ {
			labels = append(labels, labelCounts[i])
		}
	}
	return labels
}

// Interleave returns labels cycling through classes until n labels exist.
func Interleave(n int, classes ...int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = classes[i%len(classes)]
	}
	return labels
}

// NewPartition builds a partition with one synthetic image per label. Pixel
// values depend on the partition name, sample index and position, so no two
// samples are equal and none is fully black or white.
func NewPartition(name string, labels []int) *poison.Partition {
	salt := 0
	if name == poison.PartitionTest {
		salt = 101
	}
	part := &poison.Partition{Name: name, Samples: make([]poison.Sample, len(labels))}
	for i, l := range labels {
		img := poison.NewImage(Height, Width, Channels)
		for p := range img.Pix {
			img.Pix[p] = uint8(20 + (i*37+p*11+salt)%200)
		}
		part.Samples[i] = poison.Sample{Image: img, Label: l}
	}
	return part
}

// NewDataset builds a synthetic dataset.
func NewDataset(trainLabels, testLabels []int, numClasses int) *poison.Dataset {
	return &poison.Dataset{
		Train:      NewPartition(poison.PartitionTrain, trainLabels),
		Test:       NewPartition(poison.PartitionTest, testLabels),
		NumClasses: numClasses,
	}
}

// WrittenSample is one sample captured by a MemorySink.
type WrittenSample struct {
	Index int
	Image *poison.Image
	Label int
}

// MemorySink is an in-memory poison.Sink.
type MemorySink struct {
	Samples  map[string][]WrittenSample
	Metadata []poison.Metadata
	// FailAfter > 0 makes WriteSample fail once that many samples were written.
	FailAfter int
	written   int
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{Samples: make(map[string][]WrittenSample)}
}

func (m *MemorySink) WriteSample(partition string, index int, img *poison.Image, label int) error {
	if m.FailAfter > 0 && m.written >= m.FailAfter {
		return ErrSinkFull
	}
	m.written++
	m.Samples[partition] = append(m.Samples[partition], WrittenSample{Index: index, Image: img.Clone(), Label: label})
	return nil
}

func (m *MemorySink) WriteMetadata(meta poison.Metadata) error {
	m.Metadata = append(m.Metadata, meta)
	return nil
}

// ChangedByClass compares written samples against the clean partition and
// counts, per clean label, the images that differ.
func ChangedByClass(clean *poison.Partition, written []WrittenSample) map[int]int {
	changed := make(map[int]int)
	for _, w := range written {
		orig := clean.Samples[w.Index]
		if !orig.Image.Equal(w.Image) {
			changed[orig.Label]++
		}
	}
	return changed
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
