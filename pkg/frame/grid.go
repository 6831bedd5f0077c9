package frame

import (
	"image"
	"image/color"
)

// Grid is a decoded height x width sample array. Pix holds Channels bytes
// per sample, row-major.
type Grid struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height, channels int) *Grid {
	return &Grid{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Row returns the samples of row y.
func (g *Grid) Row(y int) []uint8 {
	stride := g.Width * g.Channels
	return g.Pix[y*stride : (y+1)*stride]
}

// At returns the channel values of the sample at (x, y).
func (g *Grid) At(x, y int) []uint8 {
	off := (y*g.Width + x) * g.Channels
	return g.Pix[off : off+g.Channels]
}

// Image converts the grid into an *image.Gray or *image.RGBA.
func (g *Grid) Image() image.Image {
	rect := image.Rect(0, 0, g.Width, g.Height)
	if g.Channels == 1 {
		img := image.NewGray(rect)
		copy(img.Pix, g.Pix)
		return img
	}
	img := image.NewRGBA(rect)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			s := g.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: s[0], G: s[1], B: s[2], A: 0xff})
		}
	}
	return img
}
