// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Raster is an in-memory Surface over an image.RGBA pixel buffer.
type Raster struct {
	img    *image.RGBA
	width  int
	height int
}

var _ Surface = (*Raster)(nil)

// NewRaster creates a Raster of the given size. Degenerate dimensions
// are floored to 1px so drawing code never divides by zero.
func NewRaster(width, height int) *Raster {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Raster{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
}

// Image exposes the underlying pixel buffer, e.g. for PNG export or
// blitting onto another surface.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Bounds() (int, int) { return r.width, r.height }

func (r *Raster) Clear(c color.RGBA) {
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func (r *Raster) FillRect(x, y, w, h int, c color.RGBA) {
	rect := image.Rect(x, y, x+w, y+h).Intersect(r.img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(r.img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func (r *Raster) FillRectAlpha(x, y, w, h int, c color.RGBA, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha >= 1 {
		r.FillRect(x, y, w, h, c)
		return
	}
	rect := image.Rect(x, y, x+w, y+h).Intersect(r.img.Bounds())
	for py := rect.Min.Y; py < rect.Max.Y; py++ {
		for px := rect.Min.X; px < rect.Max.X; px++ {
			r.blendPixel(px, py, c, alpha)
		}
	}
}

func (r *Raster) blendPixel(x, y int, c color.RGBA, alpha float64) {
	i := r.img.PixOffset(x, y)
	pix := r.img.Pix
	pix[i] = blend(pix[i], c.R, alpha)
	pix[i+1] = blend(pix[i+1], c.G, alpha)
	pix[i+2] = blend(pix[i+2], c.B, alpha)
	pix[i+3] = blend(pix[i+3], c.A, alpha)
}

func blend(dst, src uint8, alpha float64) uint8 {
	return uint8(float64(src)*alpha + float64(dst)*(1-alpha))
}

// StrokeLine draws a 1px Bresenham line clipped to the surface.
func (r *Raster) StrokeLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if x0 >= 0 && x0 < r.width && y0 >= 0 && y0 < r.height {
			r.img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// ShiftLeft moves the image left by cols columns in place and zeroes
// the vacated right edge. A copy, not a blend.
func (r *Raster) ShiftLeft(cols int) {
	if cols <= 0 {
		return
	}
	if cols >= r.width {
		r.Clear(color.RGBA{})
		return
	}
	for y := 0; y < r.height; y++ {
		row := r.img.Pix[r.img.PixOffset(0, y):r.img.PixOffset(r.width, y)]
		copy(row, row[cols*4:])
		tail := row[(r.width-cols)*4:]
		for i := range tail {
			tail[i] = 0
		}
	}
}

func (r *Raster) Blit(src *image.RGBA, x, y int) {
	bounds := src.Bounds()
	rect := image.Rect(x, y, x+bounds.Dx(), y+bounds.Dy())
	draw.Draw(r.img, rect, src, bounds.Min, draw.Src)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
