// Package render marshals options into encoder calls and turns the encoder's
// output into an image of an exact pixel width.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// MaskColor is the foreground used for preview masks. Only its alpha matters
// downstream; the real colors are applied by compositing.
var MaskColor = color.NRGBA{A: 0xff}

type Renderer struct {
	enc Encoder
	log *logrus.Entry
}

func New(enc Encoder, log *logrus.Entry) *Renderer {
	return &Renderer{enc: enc, log: log.WithField("encoder", enc.Name())}
}

func (r *Renderer) EncoderName() string { return r.enc.Name() }

// Mask renders url as an opaque-on-transparent mask exactly o.Width pixels
// wide. Color edits never need a new mask.
func (r *Renderer) Mask(ctx context.Context, url string, o entity.Options) (*image.NRGBA, error) {
	img, err := r.render(ctx, url, o, o.Width, MaskColor, nil)
	if err != nil {
		return nil, err
	}
	binarize(img)
	return img, nil
}

// TrueColor renders url with the user's colors baked in at o.Width*scale.
func (r *Renderer) TrueColor(ctx context.Context, url string, o entity.Options, scale int) (*image.NRGBA, error) {
	if scale < 1 {
		scale = 1
	}
	dark, err := validate.ParseHexColor(o.Color.Dark)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	light, err := validate.ParseHexColor(o.Color.Light)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	return r.render(ctx, url, o, o.Width*scale, dark, light)
}

// Modules returns the bare module grid for vector output.
func (r *Renderer) Modules(ctx context.Context, url string, level entity.Level) ([][]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mods, err := r.enc.Modules(url, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	if len(mods) == 0 {
		return nil, fmt.Errorf("%w: empty symbol", entity.ErrEncode)
	}
	return mods, nil
}

func (r *Renderer) render(ctx context.Context, url string, o entity.Options, width int, dark, light color.Color) (*image.NRGBA, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty content", entity.ErrEncode)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	dim, err := r.enc.Dimension(url, o.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	modulePx := ModulePixels(width, dim, o.Margin)
	img, err := r.enc.Raster(url, Spec{
		Level:    o.Level,
		ModulePx: modulePx,
		Margin:   o.Margin,
		Dark:     dark,
		Light:    light,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}

	// The encoder call cannot be interrupted; a cancelled caller just never
	// sees the result.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := scaleExact(img, width)

	r.log.WithFields(logrus.Fields{
		"modules":   dim,
		"module_px": modulePx,
		"width":     width,
		"took":      time.Since(start),
	}).Debug("qr rendered")
	return out, nil
}

// ModulePixels is the smallest whole module size that reaches width once the
// quiet zone is included, capped at what the encoder accepts.
func ModulePixels(width, dim, margin int) int {
	total := dim + 2*margin
	if total <= 0 {
		return 1
	}
	px := (width + total - 1) / total
	if px < 1 {
		px = 1
	}
	if px > 255 {
		px = 255
	}
	return px
}

// scaleExact resamples img to width×width with nearest-neighbour so module
// edges stay hard.
func scaleExact(img image.Image, width int) *image.NRGBA {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b.Dx() == width && b.Dy() == width && b.Min == (image.Point{}) {
		return nrgba
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, width))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// binarize snaps every pixel to either the mask token or fully transparent,
// dropping the anti-aliasing fringe a transparent render can carry.
func binarize(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] >= 0x80 {
			img.Pix[i-3], img.Pix[i-2], img.Pix[i-1], img.Pix[i] = MaskColor.R, MaskColor.G, MaskColor.B, 0xff
		} else {
			img.Pix[i-3], img.Pix[i-2], img.Pix[i-1], img.Pix[i] = 0, 0, 0, 0
		}
	}
}
