package manifest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/poisonset/poisonset/poison"
)

// EncodeImage writes img as PNG: 1 channel as grayscale, 3 as RGB, 4 as RGBA.
func EncodeImage(w io.Writer, img *poison.Image) error {
	rect := image.Rect(0, 0, img.Width, img.Height)
	switch img.Channels {
	case 1:
		g := image.NewGray(rect)
		copy(g.Pix, img.Pix)
		return png.Encode(w, g)
	case 3:
		m := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(img.Pix); i, j = i+3, j+4 {
			m.Pix[j], m.Pix[j+1], m.Pix[j+2], m.Pix[j+3] = img.Pix[i], img.Pix[i+1], img.Pix[i+2], 0xff
		}
		return png.Encode(w, m)
	case 4:
		m := image.NewNRGBA(rect)
		copy(m.Pix, img.Pix)
		return png.Encode(w, m)
	default:
		return fmt.Errorf("unsupported channel count %d", img.Channels)
	}
}

// DecodeImage reads a PNG. Grayscale images decode to 1 channel, opaque
// colour images to 3 channels and translucent ones to 4. The encoder writes
// fully opaque 4-channel images as RGB, so those come back with 3 channels.
func DecodeImage(r io.Reader) (*poison.Image, error) {
	m, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	b := m.Bounds()
	if g, ok := m.(*image.Gray); ok {
		out := poison.NewImage(b.Dy(), b.Dx(), 1)
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*b.Dx():(y+1)*b.Dx()], g.Pix[y*g.Stride:y*g.Stride+b.Dx()])
		}
		return out, nil
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	opaque := true
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			nrgba.SetNRGBA(x, y, c)
			if c.A != 0xff {
				opaque = false
			}
		}
	}
	if !opaque {
		out := poison.NewImage(b.Dy(), b.Dx(), 4)
		copy(out.Pix, nrgba.Pix)
		return out, nil
	}
	out := poison.NewImage(b.Dy(), b.Dx(), 3)
	for i, j := 0, 0; j < len(nrgba.Pix); i, j = i+3, j+4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = nrgba.Pix[j], nrgba.Pix[j+1], nrgba.Pix[j+2]
	}
	return out, nil
}
