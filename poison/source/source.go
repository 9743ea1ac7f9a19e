package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/poisonset/poisonset/poison"
	"github.com/poisonset/poisonset/poison/manifest"
)

// Source kinds accepted by Load.
const (
	KindCIFAR10  = "cifar10"
	KindCIFAR100 = "cifar100"
	KindManifest = "manifest"
)

var validKinds = map[string]bool{KindCIFAR10: true, KindCIFAR100: true, KindManifest: true}

// Kinds returns the recognized source kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(validKinds))
	for k := range validKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Load reads a clean dataset of the given kind from dir. numClasses is only
// consulted for manifest directories; 0 infers it from the largest label.
func Load(kind, dir string, numClasses int) (*poison.Dataset, error) {
	switch kind {
	case KindCIFAR10:
		return LoadCIFAR10(dir)
	case KindCIFAR100:
		return LoadCIFAR100(dir)
	case KindManifest:
		return LoadManifestDir(dir, numClasses)
	default:
		return nil, fmt.Errorf("%w: unknown dataset source %q; valid: %v", poison.ErrInvalidConfig, kind, Kinds())
	}
}

// LoadManifestDir reads a dataset stored in the manifest layout written by
// the manifest package.
func LoadManifestDir(root string, numClasses int) (*poison.Dataset, error) {
	ds := &poison.Dataset{NumClasses: numClasses}
	maxLabel := -1
	for _, name := range poison.PartitionOrder {
		records, err := manifest.ReadManifest(root, name)
		if err != nil {
			return nil, err
		}
		part := &poison.Partition{Name: name, Samples: make([]poison.Sample, 0, len(records))}
		for _, rec := range records {
			img, err := readImage(filepath.Join(root, filepath.FromSlash(rec.Path)))
			if err != nil {
				return nil, err
			}
			part.Samples = append(part.Samples, poison.Sample{Image: img, Label: rec.Label})
			maxLabel = max(maxLabel, rec.Label)
		}
		if name == poison.PartitionTrain {
			ds.Train = part
		} else {
			ds.Test = part
		}
	}
	if ds.NumClasses == 0 {
		ds.NumClasses = maxLabel + 1
	}
	unifyAlpha(ds)
	return ds, nil
}

// unifyAlpha widens 3-channel images to 4 channels when any image of ds has
// an alpha channel. PNG stores opaque RGBA rasters as RGB, so a 4-channel
// dataset decodes with both shapes.
func unifyAlpha(ds *poison.Dataset) {
	hasAlpha := false
	for _, part := range []*poison.Partition{ds.Train, ds.Test} {
		for _, s := range part.Samples {
			if s.Image.Channels == 4 {
				hasAlpha = true
			}
		}
	}
	if !hasAlpha {
		return
	}
	for _, part := range []*poison.Partition{ds.Train, ds.Test} {
		for i, s := range part.Samples {
			if s.Image.Channels == 3 {
				part.Samples[i].Image = withOpaqueAlpha(s.Image)
			}
		}
	}
}

func withOpaqueAlpha(img *poison.Image) *poison.Image {
	out := poison.NewImage(img.Height, img.Width, 4)
	for i, j := 0, 0; i < len(img.Pix); i, j = i+3, j+4 {
		out.Pix[j], out.Pix[j+1], out.Pix[j+2], out.Pix[j+3] = img.Pix[i], img.Pix[i+1], img.Pix[i+2], 0xff
	}
	return out
}

func readImage(path string) (*poison.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	img, err := manifest.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
