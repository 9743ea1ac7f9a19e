package poison

import "math"

// PatternSize is the side length of the square stamped by PatternOverlay.
const PatternSize = 3

// PatternOverlay stamps a constant-intensity square into the top-left corner
// of each selected image. It draws no randomness.
type PatternOverlay struct {
	quota   *ClassQuota
	opacity float64
	value   uint8
}

// NewPatternOverlay creates an overlay whose intensity is round(255*opacity).
func NewPatternOverlay(quota *ClassQuota, opacity float64) *PatternOverlay {
	return &PatternOverlay{
		quota:   quota,
		opacity: opacity,
		value:   PatternValue(opacity),
	}
}

// PatternValue converts an opacity to the stamped pixel intensity.
func PatternValue(opacity float64) uint8 {
	v := math.Round(255 * opacity)
	return uint8(max(0, min(255, v)))
}

func (o *PatternOverlay) Name() string { return TypeWhiteSquare }

func (o *PatternOverlay) Quota() *ClassQuota { return o.quota }

// Poison stamps the pattern in place when the quota allows it.
func (o *PatternOverlay) Poison(img *Image, label int) (*Image, int, Decision) {
	if !o.quota.Take(label) {
		return img, label, Decision{Reference: -1}
	}
	ApplyPattern(img, o.value)
	return img, label, Decision{Applied: true, Alpha: float64(o.value) / 255, Reference: -1}
}

// ApplyPattern writes value into every channel of the top-left
// PatternSize x PatternSize block, clipped to the image bounds.
// Reapplying it leaves the image unchanged.
func ApplyPattern(img *Image, value uint8) {
	h := min(PatternSize, img.Height)
	w := min(PatternSize, img.Width)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < img.Channels; c++ {
				img.Set(y, x, c, value)
			}
		}
	}
}
