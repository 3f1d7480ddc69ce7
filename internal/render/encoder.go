package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/entity"
)

// Spec parameterises one raster produced by an Encoder.
type Spec struct {
	Level    entity.Level
	ModulePx int // pixels per module, 1-255
	Margin   int // quiet zone in modules
	Dark     color.Color
	Light    color.Color // nil means transparent
}

// Encoder turns text into a QR symbol. Module layout, version selection and
// error-correction coding are entirely the encoder's business.
type Encoder interface {
	Name() string
	// Dimension returns the symbol's width in modules, quiet zone excluded.
	Dimension(content string, level entity.Level) (int, error)
	// Raster draws the symbol at spec.ModulePx per module with a quiet zone
	// of spec.Margin modules on every side.
	Raster(content string, spec Spec) (image.Image, error)
	// Modules returns the module grid, true for dark, quiet zone excluded.
	Modules(content string, level entity.Level) ([][]bool, error)
}

const (
	EncoderYeqown = "yeqown"
	EncoderSkip2  = "skip2"
)

// NewEncoder returns the backend registered under name.
func NewEncoder(name string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncoderYeqown:
		return yeqownEncoder{}, nil
	case EncoderSkip2:
		return skip2Encoder{}, nil
	}
	return nil, fmt.Errorf("unknown qr encoder %q, want %q or %q", name, EncoderYeqown, EncoderSkip2)
}

// rasterizeModules paints a module grid. Used by backends whose own image
// output cannot honour an exact quiet zone.
func rasterizeModules(mods [][]bool, spec Spec) *image.NRGBA {
	n := len(mods)
	px := spec.ModulePx
	size := (n + 2*spec.Margin) * px
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	if spec.Light != nil {
		draw.Draw(img, img.Bounds(), &image.Uniform{C: spec.Light}, image.Point{}, draw.Src)
	}
	fg := &image.Uniform{C: spec.Dark}
	off := spec.Margin * px
	for y, row := range mods {
		for x, dark := range row {
			if !dark {
				continue
			}
			r := image.Rect(off+x*px, off+y*px, off+(x+1)*px, off+(y+1)*px)
			draw.Draw(img, r, fg, image.Point{}, draw.Src)
		}
	}
	return img
}
