package poison

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Blend writes clamp(ref*alpha + orig*(1-alpha)) into dst. The float result
// is clamped to [0,255] and then truncated toward zero, never rounded.
// dst may alias orig. All three images must share one shape.
func Blend(dst, orig, ref *Image, alpha float64) {
	var b blender
	b.blend(dst, orig, ref, alpha)
}

// blender holds scratch buffers reused across samples.
type blender struct {
	mix  []float64
	orig []float64
}

func (b *blender) blend(dst, orig, ref *Image, alpha float64) {
	n := len(orig.Pix)
	if cap(b.mix) < n {
		b.mix = make([]float64, n)
		b.orig = make([]float64, n)
	}
	b.mix, b.orig = b.mix[:n], b.orig[:n]
	for i := 0; i < n; i++ {
		b.mix[i] = float64(ref.Pix[i])
		b.orig[i] = float64(orig.Pix[i])
	}
	floats.Scale(alpha, b.mix)
	floats.Scale(1-alpha, b.orig)
	floats.Add(b.mix, b.orig)
	for i, v := range b.mix {
		dst.Pix[i] = uint8(max(0, min(255, v)))
	}
}

// drawAlpha returns opacity perturbed by a uniform draw in
// [-variance/2, variance/2). One value is consumed from rng even when
// variance is zero.
func drawAlpha(rng *rand.Rand, opacity, variance float64) float64 {
	added := (rng.Float64() - 0.5) * variance
	return opacity + added
}

// FixedBlend blends the first training image into every selected sample.
type FixedBlend struct {
	quota     *ClassQuota
	reference *Image
	opacity   float64
	variance  float64
	rng       *rand.Rand
	blender   blender
}

// NewFixedBlend captures train's first image as the blend reference.
func NewFixedBlend(quota *ClassQuota, train *Partition, opacity, variance float64, rng *rand.Rand) (*FixedBlend, error) {
	if train.Len() == 0 {
		return nil, fmt.Errorf("%w: %s needs a non-empty training partition", ErrInvalidConfig, MethodBlendOneImage)
	}
	return &FixedBlend{
		quota:     quota,
		reference: train.Samples[0].Image,
		opacity:   opacity,
		variance:  variance,
		rng:       rng,
	}, nil
}

func (f *FixedBlend) Name() string { return TypeBlendOne }

func (f *FixedBlend) Quota() *ClassQuota { return f.quota }

// Poison returns a new blended image when the quota allows it.
func (f *FixedBlend) Poison(img *Image, label int) (*Image, int, Decision) {
	if !f.quota.Take(label) {
		return img, label, Decision{Reference: -1}
	}
	alpha := drawAlpha(f.rng, f.opacity, f.variance)
	out := NewImage(img.Height, img.Width, img.Channels)
	f.blender.blend(out, img, f.reference, alpha)
	return out, label, Decision{Applied: true, Alpha: alpha, Reference: 0}
}

// SubsetBlend blends a reference drawn uniformly, with replacement, from a
// pool of training images of one source class.
type SubsetBlend struct {
	quota    *ClassQuota
	train    *Partition
	pool     []int
	opacity  float64
	variance float64
	rng      *rand.Rand
	blender  blender
}

// NewSubsetBlend builds the reference pool: the indices of every train sample
// labelled sourceClass, in dataset order, truncated to the first subsetSize
// entries when subsetSize is positive.
func NewSubsetBlend(quota *ClassQuota, train *Partition, sourceClass, subsetSize int, opacity, variance float64, rng *rand.Rand) (*SubsetBlend, error) {
	pool := ReferencePool(train, sourceClass, subsetSize)
	if len(pool) == 0 && quota.Total() > 0 {
		return nil, fmt.Errorf("%w: source class %d has no training samples to blend from", ErrInvalidConfig, sourceClass)
	}
	return &SubsetBlend{
		quota:    quota,
		train:    train,
		pool:     pool,
		opacity:  opacity,
		variance: variance,
		rng:      rng,
	}, nil
}

// ReferencePool returns the train indices whose label is sourceClass, in
// order, keeping only the first subsetSize when subsetSize > 0.
func ReferencePool(train *Partition, sourceClass, subsetSize int) []int {
	var pool []int
	for i, s := range train.Samples {
		if s.Label == sourceClass {
			pool = append(pool, i)
		}
	}
	if subsetSize > 0 && len(pool) > subsetSize {
		pool = pool[:subsetSize]
	}
	return pool
}

func (s *SubsetBlend) Name() string { return TypeBlendSubset }

func (s *SubsetBlend) Quota() *ClassQuota { return s.quota }

// Pool returns the train indices eligible as blend references.
func (s *SubsetBlend) Pool() []int { return s.pool }

// Poison draws a reference, then an alpha, and returns a new blended image
// when the quota allows it.
func (s *SubsetBlend) Poison(img *Image, label int) (*Image, int, Decision) {
	if !s.quota.Take(label) {
		return img, label, Decision{Reference: -1}
	}
	ref := s.pool[s.rng.Intn(len(s.pool))]
	alpha := drawAlpha(s.rng, s.opacity, s.variance)
	out := NewImage(img.Height, img.Width, img.Channels)
	s.blender.blend(out, img, s.train.Samples[ref].Image, alpha)
	return out, label, Decision{Applied: true, Alpha: alpha, Reference: ref}
}
