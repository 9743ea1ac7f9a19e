package poison

import "fmt"

// Partition names. The order of PartitionOrder is the materialization order.
const (
	PartitionTrain = "train"
	PartitionTest  = "test"
)

// PartitionOrder lists partitions in the order the builder visits them.
var PartitionOrder = []string{PartitionTrain, PartitionTest}

// Image is an 8-bit raster stored row-major as height x width x channels,
// the same memory order as an HWC array.
type Image struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// NewImage allocates a zeroed image of the given shape.
func NewImage(height, width, channels int) *Image {
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := &Image{Height: im.Height, Width: im.Width, Channels: im.Channels}
	out.Pix = make([]uint8, len(im.Pix))
	copy(out.Pix, im.Pix)
	return out
}

// offset returns the Pix index of channel c at row y, column x.
func (im *Image) offset(y, x, c int) int {
	return (y*im.Width+x)*im.Channels + c
}

// At returns channel c of the pixel at row y, column x.
func (im *Image) At(y, x, c int) uint8 {
	return im.Pix[im.offset(y, x, c)]
}

// Set writes channel c of the pixel at row y, column x.
func (im *Image) Set(y, x, c int, v uint8) {
	im.Pix[im.offset(y, x, c)] = v
}

// SameShape reports whether both images have identical dimensions.
func (im *Image) SameShape(other *Image) bool {
	return im.Height == other.Height && im.Width == other.Width && im.Channels == other.Channels
}

// Equal reports whether both images have the same shape and pixels.
func (im *Image) Equal(other *Image) bool {
	if !im.SameShape(other) || len(im.Pix) != len(other.Pix) {
		return false
	}
	for i := range im.Pix {
		if im.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

func (im *Image) String() string {
	return fmt.Sprintf("%dx%dx%d", im.Height, im.Width, im.Channels)
}

// Sample is one labelled image of a partition.
type Sample struct {
	Image *Image
	Label int
}

// Partition is an ordered, named collection of samples.
type Partition struct {
	Name    string
	Samples []Sample
}

// Len returns the number of samples.
func (p *Partition) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Samples)
}

// Labels returns the sample labels in iteration order.
func (p *Partition) Labels() []int {
	labels := make([]int, p.Len())
	for i, s := range p.Samples {
		labels[i] = s.Label
	}
	return labels
}

// Dataset is a clean image classification corpus with train and test partitions.
type Dataset struct {
	Train      *Partition
	Test       *Partition
	NumClasses int
}

// Partition returns the partition with the given name, or nil.
func (d *Dataset) Partition(name string) *Partition {
	switch name {
	case PartitionTrain:
		return d.Train
	case PartitionTest:
		return d.Test
	default:
		return nil
	}
}

// Validate checks that both partitions exist, all images share the shape of
// the first training image and every label lies inside the label space.
func (d *Dataset) Validate() error {
	if d.Train == nil || d.Test == nil {
		return fmt.Errorf("%w: dataset needs both train and test partitions", ErrInvalidDataset)
	}
	if d.NumClasses <= 0 {
		return fmt.Errorf("%w: num classes must be positive, got %d", ErrInvalidDataset, d.NumClasses)
	}
	var shape *Image
	for _, part := range []*Partition{d.Train, d.Test} {
		for i, s := range part.Samples {
			if s.Image == nil {
				return fmt.Errorf("%w: %s[%d] has no image", ErrInvalidDataset, part.Name, i)
			}
			if len(s.Image.Pix) != s.Image.Height*s.Image.Width*s.Image.Channels {
				return fmt.Errorf("%w: %s[%d] pixel buffer does not match shape %s", ErrInvalidDataset, part.Name, i, s.Image)
			}
			if shape == nil {
				shape = s.Image
			} else if !shape.SameShape(s.Image) {
				return fmt.Errorf("%w: %s[%d] has shape %s, expected %s", ErrInvalidDataset, part.Name, i, s.Image, shape)
			}
			if s.Label < 0 || s.Label >= d.NumClasses {
				return fmt.Errorf("%w: %s[%d] label %d outside [0,%d)", ErrInvalidDataset, part.Name, i, s.Label, d.NumClasses)
			}
		}
	}
	return nil
}
