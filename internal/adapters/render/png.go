package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// PNG draws a projected mesh as a black wireframe on white: every mesh row and
// every mesh column becomes a polyline. Both axes share one scale so shapes
// keep their aspect ratio. A non-finite point breaks the lines through it.
type PNG struct {
	Width     int
	Height    int
	Padding   int
	LineWidth float64
}

// NewPNG returns a renderer with the given canvas settings.
func NewPNG(width, height, padding int, lineWidth float64) *PNG {
	return &PNG{Width: width, Height: height, Padding: padding, LineWidth: lineWidth}
}

func (r *PNG) Format() domain.Format { return domain.FormatPNG }

// Render implements ports.MeshRenderer.
func (r *PNG) Render(ctx context.Context, p *domain.Projection) ([]byte, error) {
	img, err := r.Draw(ctx, p.Mesh)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw rasterizes the mesh. A mesh without any finite point yields a blank canvas.
func (r *PNG) Draw(ctx context.Context, mesh domain.ProjectedMesh) (*image.RGBA, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas %dx%d", r.Width, r.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	view, ok := r.fit(mesh)
	if !ok {
		return img, nil
	}

	z := vector.NewRasterizer(r.Width, r.Height)
	half := float32(r.LineWidth / 2)

	for i, row := range mesh {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, pt := range row {
			// along the row
			if j+1 < len(row) {
				r.segment(z, view, pt, row[j+1], half)
			}
			// along the column
			if i+1 < len(mesh) && j < len(mesh[i+1]) {
				r.segment(z, view, pt, mesh[i+1][j], half)
			}
		}
	}

	z.Draw(img, img.Bounds(), image.Black, image.Point{})
	return img, nil
}

// viewport maps mesh coordinates onto the canvas.
type viewport struct {
	scale      float64
	minX, maxY float64
	offX, offY float64
}

func (v viewport) pixel(p domain.ProjectedPoint) (float32, float32) {
	return float32(v.offX + (p.X-v.minX)*v.scale), float32(v.offY + (v.maxY-p.Y)*v.scale)
}

// fit computes an equal-aspect viewport over the finite points of the mesh.
func (r *PNG) fit(mesh domain.ProjectedMesh) (viewport, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, row := range mesh {
		for _, p := range row {
			if !p.IsFinite() {
				continue
			}
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return viewport{}, false
	}

	innerW := float64(r.Width - 2*r.Padding)
	innerH := float64(r.Height - 2*r.Padding)
	dx, dy := maxX-minX, maxY-minY

	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(innerW/dx, innerH/dy)
	case dx > 0:
		scale = innerW / dx
	case dy > 0:
		scale = innerH / dy
	}

	return viewport{
		scale: scale,
		minX:  minX,
		maxY:  maxY,
		offX:  float64(r.Padding) + (innerW-dx*scale)/2,
		offY:  float64(r.Padding) + (innerH-dy*scale)/2,
	}, true
}

// segment adds a stroke from a to b as a quad of half-width half. All quads
// share one winding so overlapping strokes never cancel out.
func (r *PNG) segment(z *vector.Rasterizer, v viewport, a, b domain.ProjectedPoint, half float32) {
	if !a.IsFinite() || !b.IsFinite() {
		return
	}
	ax, ay := v.pixel(a)
	bx, by := v.pixel(b)
	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*half, dx/length*half

	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}
