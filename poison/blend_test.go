package poison

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixImage(pix ...uint8) *Image {
	return &Image{Height: 1, Width: len(pix), Channels: 1, Pix: pix}
}

func TestBlend_TruncatesTowardZero(t *testing.T) {
	tests := []struct {
		name      string
		orig, ref uint8
		alpha     float64
		want      uint8
	}{
		{"half way", 10, 13, 0.5, 11},         // 11.5
		{"below one", 0, 3, 0.25, 0},          // 0.75
		{"full scale half", 0, 255, 0.5, 127}, // 127.5
		{"alpha one copies reference", 40, 90, 1, 90},
		{"alpha zero keeps original", 40, 90, 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := pixImage(0)
			Blend(dst, pixImage(tt.orig), pixImage(tt.ref), tt.alpha)
			assert.Equal(t, tt.want, dst.Pix[0])
		})
	}
}

func TestBlend_ClampsOutOfRange(t *testing.T) {
	// alpha outside [0,1] happens when variance pushes it there
	high := pixImage(0)
	Blend(high, pixImage(10), pixImage(200), 1.5) // 300 - 5
	assert.Equal(t, uint8(255), high.Pix[0])

	low := pixImage(0)
	Blend(low, pixImage(10), pixImage(200), -0.5) // -100 + 15
	assert.Equal(t, uint8(0), low.Pix[0])
}

func TestBlend_DstMayAliasOrig(t *testing.T) {
	img := pixImage(100, 0)
	Blend(img, img, pixImage(200, 100), 0.5)
	assert.Equal(t, []uint8{150, 50}, img.Pix)
}

func TestDrawAlpha_ZeroVariance_ConsumesOneDraw(t *testing.T) {
	// GIVEN two sources with the same seed
	a, b := rand.New(rand.NewSource(3)), rand.New(rand.NewSource(3))

	// WHEN drawing an alpha with zero variance from a
	alpha := drawAlpha(a, 0.4, 0)
	b.Float64()

	// THEN alpha equals opacity and both streams stay aligned
	assert.Equal(t, 0.4, alpha)
	assert.Equal(t, b.Float64(), a.Float64())
}

func TestDrawAlpha_WithinVarianceWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		alpha := drawAlpha(rng, 0.5, 0.2)
		if alpha < 0.4 || alpha >= 0.6 {
			t.Fatalf("draw %d: alpha %v outside [0.4,0.6)", i, alpha)
		}
	}
}

func partitionOf(labels []int, base uint8) *Partition {
	p := &Partition{Name: PartitionTrain}
	for i, l := range labels {
		p.Samples = append(p.Samples, Sample{Image: pixImage(base+uint8(i), base+uint8(2*i)), Label: l})
	}
	return p
}

func TestFixedBlend_UsesFirstTrainImage(t *testing.T) {
	// GIVEN a train partition whose first image is [50 50]
	train := partitionOf([]int{1, 0, 0}, 50)
	quota := ComputeQuota(train.Labels(), []int{0}, 1)
	f, err := NewFixedBlend(quota, train, 1, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	// WHEN a class-0 image is poisoned with opacity 1
	in := pixImage(7, 7)
	out, label, d := f.Poison(in, 0)

	// THEN the output is the reference, the input is untouched
	assert.True(t, d.Applied)
	assert.Equal(t, 0, d.Reference)
	assert.Equal(t, []uint8{50, 50}, out.Pix)
	assert.Equal(t, []uint8{7, 7}, in.Pix)
	assert.Equal(t, 0, label)
	assert.Equal(t, []uint8{50, 50}, train.Samples[0].Image.Pix, "reference must not be mutated")
}

func TestFixedBlend_ZeroVariance_Repeatable(t *testing.T) {
	run := func() [][]uint8 {
		train := partitionOf([]int{0, 0, 0, 0}, 30)
		quota := ComputeQuota(train.Labels(), []int{0}, 1)
		f, err := NewFixedBlend(quota, train, 0.3, 0, rand.New(rand.NewSource(5)))
		require.NoError(t, err)
		var outs [][]uint8
		for _, s := range train.Samples {
			out, _, _ := f.Poison(s.Image, s.Label)
			outs = append(outs, out.Pix)
		}
		return outs
	}
	assert.Equal(t, run(), run())
}

func TestFixedBlend_EmptyTrain_Error(t *testing.T) {
	_, err := NewFixedBlend(ComputeQuota(nil, []int{0}, 1), &Partition{}, 0.5, 0, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReferencePool_FirstSubsetSizeInOrder(t *testing.T) {
	// GIVEN 25 class-5 samples interleaved with class 1
	var labels []int
	for i := 0; i < 50; i++ {
		labels = append(labels, []int{5, 1}[i%2])
	}
	train := partitionOf(labels, 0)

	// WHEN the pool is truncated to 10
	pool := ReferencePool(train, 5, 10)

	// THEN it holds exactly the first ten class-5 indices
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, pool)
	assert.Len(t, ReferencePool(train, 5, 0), 25, "subset size 0 keeps every sample")
	assert.Len(t, ReferencePool(train, 5, 100), 25)
}

func TestSubsetBlend_DrawsOnlyFromPool(t *testing.T) {
	labels := []int{5, 0, 5, 0, 5, 0, 0, 0}
	train := partitionOf(labels, 10)
	quota := ComputeQuota(train.Labels(), []int{0}, 1)
	s, err := NewSubsetBlend(quota, train, 5, 2, 0.5, 0.1, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, s.Pool())

	for i, sample := range train.Samples {
		_, _, d := s.Poison(sample.Image, sample.Label)
		if sample.Label != 0 {
			assert.False(t, d.Applied, "sample %d", i)
			continue
		}
		assert.True(t, d.Applied, "sample %d", i)
		assert.Contains(t, []int{0, 2}, d.Reference)
	}
	assert.Equal(t, 0, quota.Total())
}

func TestSubsetBlend_SameSeed_SameReferences(t *testing.T) {
	draw := func(seed int64) []int {
		train := partitionOf([]int{5, 5, 5, 5, 0, 0, 0, 0, 0, 0}, 0)
		quota := ComputeQuota(train.Labels(), []int{0}, 1)
		s, err := NewSubsetBlend(quota, train, 5, 0, 0.5, 0.5, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		var refs []int
		for _, sample := range train.Samples {
			if _, _, d := s.Poison(sample.Image, sample.Label); d.Applied {
				refs = append(refs, d.Reference)
			}
		}
		return refs
	}
	assert.Equal(t, draw(17), draw(17))
	assert.Len(t, draw(17), 6)
}

func TestSubsetBlend_EmptyPool(t *testing.T) {
	train := partitionOf([]int{0, 0}, 0)

	// positive quota and nothing to blend from is a configuration error
	_, err := NewSubsetBlend(ComputeQuota(train.Labels(), []int{0}, 1), train, 5, 0, 0.5, 0, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// with a zero quota the pool is never consulted
	_, err = NewSubsetBlend(ComputeQuota(train.Labels(), []int{0}, 0), train, 5, 0, 0.5, 0, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)
}

func TestNewStrategy_Selectors(t *testing.T) {
	ds := &Dataset{
		Train:      partitionOf([]int{0, 1, 1}, 0),
		Test:       partitionOf([]int{0}, 0),
		NumClasses: 2,
	}
	src := 1
	tests := []struct {
		method string
		params Params
		want   string
	}{
		{MethodWhiteSquare, Params{TargetClasses: []int{0}, Ratio: 1}, TypeWhiteSquare},
		{MethodBlendOneImage, Params{TargetClasses: []int{0}, Ratio: 1}, TypeBlendOne},
		{MethodBlendRandom, Params{TargetClasses: []int{0}, Ratio: 1, SourceClass: &src}, TypeBlendSubset},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			s, err := NewStrategy(tt.method, ds, tt.params, rand.New(rand.NewSource(1)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
			assert.Equal(t, map[int]int{0: 1}, s.Quota().Snapshot())
		})
	}

	_, err := NewStrategy("checkerboard", ds, Params{}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewStrategy(MethodBlendRandom, ds, Params{TargetClasses: []int{0}}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig, "blend-random without source class")
}
