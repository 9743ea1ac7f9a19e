package poison

import (
	"fmt"
	"math/rand"
	"sort"
)

// Strategy selectors accepted on the command line and in parameter files.
const (
	MethodWhiteSquare   = "white-square"
	MethodBlendOneImage = "blend-one-image"
	MethodBlendRandom   = "blend-random"
)

// Strategy identifiers written to the dataset metadata as poisonType.
const (
	TypeWhiteSquare = "WhiteSquare"
	TypeBlendOne    = "BlendOne"
	TypeBlendSubset = "BlendSubset"
)

// validMethods maps each selector to its metadata identifier.
var validMethods = map[string]string{
	MethodWhiteSquare:   TypeWhiteSquare,
	MethodBlendOneImage: TypeBlendOne,
	MethodBlendRandom:   TypeBlendSubset,
}

// IsValidMethod returns true if name is a recognized strategy selector.
func IsValidMethod(name string) bool {
	_, ok := validMethods[name]
	return ok
}

// MethodNames returns the recognized strategy selectors, sorted.
func MethodNames() []string {
	names := make([]string, 0, len(validMethods))
	for n := range validMethods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Decision describes what a strategy did with one sample.
type Decision struct {
	Applied   bool
	Alpha     float64 // blend strength used; pattern intensity / 255 for overlays
	Reference int     // train index of the blended reference image, -1 if none
}

// Strategy poisons samples under a per-class quota. Poison is called once per
// sample; it transforms the image and consumes quota only when label is a
// target class with budget left, otherwise it returns its inputs unchanged.
// Labels are never changed by the current strategies (clean-label poisoning).
type Strategy interface {
	// Name returns the metadata identifier of the strategy.
	Name() string
	// Quota returns the live quota, shared by every pass over the dataset.
	Quota() *ClassQuota
	Poison(img *Image, label int) (*Image, int, Decision)
}

// NewStrategy creates the strategy selected by method. The quota is computed
// from the training partition; rng supplies every random draw the strategy makes.
func NewStrategy(method string, ds *Dataset, params Params, rng *rand.Rand) (Strategy, error) {
	if !IsValidMethod(method) {
		return nil, fmt.Errorf("%w: unknown poison method %q", ErrInvalidConfig, method)
	}
	quota := ComputeQuota(ds.Train.Labels(), params.TargetClasses, params.Ratio)
	switch method {
	case MethodWhiteSquare:
		return NewPatternOverlay(quota, params.Opacity), nil
	case MethodBlendOneImage:
		return NewFixedBlend(quota, ds.Train, params.Opacity, params.Variance, rng)
	case MethodBlendRandom:
		if params.SourceClass == nil {
			return nil, fmt.Errorf("%w: provide source class for %s", ErrInvalidConfig, MethodBlendRandom)
		}
		return NewSubsetBlend(quota, ds.Train, *params.SourceClass, params.SubsetSize, params.Opacity, params.Variance, rng)
	default:
		return nil, fmt.Errorf("%w: unhandled poison method %q", ErrInvalidConfig, method)
	}
}
