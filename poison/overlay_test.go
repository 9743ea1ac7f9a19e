package poison

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledImage(h, w, c int, v uint8) *Image {
	img := NewImage(h, w, c)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestPatternValue_RoundsOpacity(t *testing.T) {
	tests := []struct {
		opacity float64
		want    uint8
	}{
		{0, 0},
		{0.5, 128},
		{0.2, 51},
		{1, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PatternValue(tt.opacity), "opacity %v", tt.opacity)
	}
}

func TestApplyPattern_StampsTopLeftBlockOnly(t *testing.T) {
	// GIVEN a 5x5 RGB image filled with 10
	img := filledImage(5, 5, 3, 10)

	// WHEN the pattern is applied with value 200
	ApplyPattern(img, 200)

	// THEN the 3x3 corner is 200 in every channel and the rest is untouched
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := uint8(10)
			if y < 3 && x < 3 {
				want = 200
			}
			for c := 0; c < 3; c++ {
				require.Equal(t, want, img.At(y, x, c), "pixel (%d,%d,%d)", y, x, c)
			}
		}
	}
}

func TestApplyPattern_Idempotent(t *testing.T) {
	once := filledImage(6, 6, 1, 33)
	ApplyPattern(once, 77)
	twice := once.Clone()
	ApplyPattern(twice, 77)
	assert.True(t, once.Equal(twice))
}

func TestApplyPattern_SmallImage_Clipped(t *testing.T) {
	img := filledImage(2, 1, 1, 0)
	ApplyPattern(img, 9)
	assert.Equal(t, []uint8{9, 9}, img.Pix)
}

func TestPatternOverlay_Poison_RespectsQuota(t *testing.T) {
	// GIVEN a quota of one sample for class 2
	quota := ComputeQuota([]int{2, 2}, []int{2}, 0.5)
	o := NewPatternOverlay(quota, 1)

	// WHEN two class-2 images and one class-1 image are poisoned
	a, b, other := filledImage(3, 3, 1, 0), filledImage(3, 3, 1, 0), filledImage(3, 3, 1, 0)
	_, la, da := o.Poison(a, 2)
	_, lb, db := o.Poison(b, 2)
	_, lo, do := o.Poison(other, 1)

	// THEN only the first is stamped and labels are unchanged
	assert.True(t, da.Applied)
	assert.Equal(t, uint8(255), a.At(0, 0, 0))
	assert.False(t, db.Applied)
	assert.Equal(t, uint8(0), b.At(0, 0, 0))
	assert.False(t, do.Applied)
	assert.Equal(t, []int{2, 2, 1}, []int{la, lb, lo})
	assert.Equal(t, -1, da.Reference)
	assert.Equal(t, TypeWhiteSquare, o.Name())
}
