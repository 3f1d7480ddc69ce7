// Package composite recolors preview masks and overlays the logo on both the
// preview and the export raster.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

const (
	LogoRatio     = 0.20 // logo diameter relative to QR width
	PaddingRatio  = 0.12 // backing padding relative to logo diameter
	MinPaddingPx  = 3
	shadowOpacity = 0.28
)

// Geometry places the logo and its white backing. All values are pixels in
// the target raster.
type Geometry struct {
	CenterX, CenterY float64
	LogoDiameter     float64
	Padding          float64
	BackingRadius    float64
}

// LogoGeometry computes the overlay for a QR of width preview pixels drawn at
// scale. Everything is derived at preview size and then multiplied, so a
// scaled export is the preview enlarged, padding floor included.
func LogoGeometry(width, scale int) Geometry {
	if scale < 1 {
		scale = 1
	}
	d := LogoRatio * float64(width)
	pad := math.Max(MinPaddingPx, PaddingRatio*d)
	s := float64(scale)
	c := float64(width*scale) / 2
	return Geometry{
		CenterX:       c,
		CenterY:       c,
		LogoDiameter:  d * s,
		Padding:       pad * s,
		BackingRadius: (d/2 + pad) * s,
	}
}

// Preview paints the light color everywhere and the dark color wherever mask
// is opaque, then overlays logo if present. The mask is never modified, so a
// color change only needs another Preview call.
func Preview(mask image.Image, colors entity.Colors, logo *entity.LogoAsset) (*image.NRGBA, error) {
	dark, light, err := parseColors(colors)
	if err != nil {
		return nil, err
	}
	b := mask.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: light}, image.Point{}, draw.Src)
	draw.DrawMask(dst, dst.Bounds(), &image.Uniform{C: dark}, image.Point{}, mask, b.Min, draw.Over)

	if logo == nil || logo.Image == nil {
		return dst, nil
	}
	return overlay(dst, logo.Image, LogoGeometry(b.Dx(), 1), false), nil
}

// Export overlays logo on a true-color render made at scale times the preview
// width, adding a soft shadow under the backing.
func Export(qr image.Image, logo *entity.LogoAsset, scale int) (*image.NRGBA, error) {
	if qr == nil {
		return nil, fmt.Errorf("%w: nothing to composite", entity.ErrExport)
	}
	if scale < 1 {
		scale = 1
	}
	b := qr.Bounds()
	if b.Dx()%scale != 0 {
		return nil, fmt.Errorf("%w: raster width %d is not a multiple of scale %d", entity.ErrExport, b.Dx(), scale)
	}
	if logo == nil || logo.Image == nil {
		return imaging.Clone(qr), nil
	}
	return overlay(qr, logo.Image, LogoGeometry(b.Dx()/scale, scale), true), nil
}

func overlay(base image.Image, logo image.Image, g Geometry, shadow bool) *image.NRGBA {
	b := base.Bounds()
	dc := gg.NewContextForImage(base)

	if shadow {
		dc.DrawImage(shadowLayer(b.Dx(), b.Dy(), g), 0, 0)
	}

	dc.SetColor(color.White)
	dc.DrawCircle(g.CenterX, g.CenterY, g.BackingRadius)
	dc.Fill()

	side := int(math.Round(g.LogoDiameter))
	if side > 0 {
		fitted := imaging.Fit(logo, side, side, imaging.Lanczos)
		dc.DrawCircle(g.CenterX, g.CenterY, g.LogoDiameter/2)
		dc.Clip()
		dc.DrawImageAnchored(fitted, int(math.Round(g.CenterX)), int(math.Round(g.CenterY)), 0.5, 0.5)
		dc.ResetClip()
	}
	return imaging.Clone(dc.Image())
}

func shadowLayer(w, h int, g Geometry) image.Image {
	sc := gg.NewContext(w, h)
	offset := math.Max(1, g.Padding/3)
	sc.SetRGBA(0, 0, 0, shadowOpacity)
	sc.DrawCircle(g.CenterX, g.CenterY+offset, g.BackingRadius)
	sc.Fill()
	return imaging.Blur(sc.Image(), math.Max(1, g.Padding/2))
}

func parseColors(c entity.Colors) (color.NRGBA, color.NRGBA, error) {
	dark, err := validate.ParseHexColor(c.Dark)
	if err != nil {
		return color.NRGBA{}, color.NRGBA{}, fmt.Errorf("%w: foreground: %v", entity.ErrFormat, err)
	}
	light, err := validate.ParseHexColor(c.Light)
	if err != nil {
		return color.NRGBA{}, color.NRGBA{}, fmt.Errorf("%w: background: %v", entity.ErrFormat, err)
	}
	return dark, light, nil
}
