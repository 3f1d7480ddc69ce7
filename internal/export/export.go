// Package export re-runs the composite at export resolution and serializes it
// to PNG, SVG or PDF bytes ready to be saved under a fixed filename.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/composite"
	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/scan"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

const filenameBase = "custqr-code"

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG, FormatPDF:
		return f, nil
	case "":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: export format %q, want png, svg or pdf", entity.ErrFormat, s)
}

func (f Format) Filename() string { return filenameBase + "." + string(f) }

func (f Format) MIMEType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// ScanResult records the decode-back check of a raster export. A failed
// check is informational; the artifact is still produced.
type ScanResult struct {
	Checked bool   `json:"checked"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

func (s ScanResult) String() string {
	switch {
	case !s.Checked:
		return "skipped"
	case s.OK:
		return "ok"
	default:
		return "failed"
	}
}

// Artifact is a finished export.
type Artifact struct {
	Data     []byte
	Filename string
	MIMEType string
	Format   Format
	// Vector is false when an SVG wraps an embedded raster because a logo
	// was present.
	Vector bool
	Scan   ScanResult
}

func (a *Artifact) RasterFallback() bool { return a.Format == FormatSVG && !a.Vector }

// Request is everything an export needs, captured at download time.
type Request struct {
	URL     string
	Options entity.Options
	Logo    *entity.LogoAsset
}

type Exporter struct {
	renderer *render.Renderer
	scale    int
	verify   bool
	log      *logrus.Entry
}

func New(renderer *render.Renderer, scale int, verify bool, log *logrus.Entry) *Exporter {
	if scale < 1 {
		scale = 1
	}
	return &Exporter{renderer: renderer, scale: scale, verify: verify, log: log}
}

func (e *Exporter) Scale() int { return e.scale }

// Export renders req with its true colors and serializes it as f.
func (e *Exporter) Export(ctx context.Context, req Request, f Format) (*Artifact, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("%w: no url to encode", entity.ErrExport)
	}

	var (
		art *Artifact
		err error
	)
	switch f {
	case FormatPNG:
		art, err = e.exportPNG(ctx, req)
	case FormatSVG:
		if req.Logo == nil {
			art, err = e.exportVectorSVG(ctx, req)
		} else {
			art, err = e.exportRasterSVG(ctx, req)
		}
	case FormatPDF:
		art, err = e.exportPDF(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", entity.ErrFormat, f)
	}
	if err != nil {
		return nil, err
	}

	art.Format = f
	art.Filename = f.Filename()
	art.MIMEType = f.MIMEType()
	e.log.WithFields(logrus.Fields{
		"format": f,
		"bytes":  len(art.Data),
		"vector": art.Vector,
		"scan":   art.Scan.String(),
	}).Debug("export done")
	return art, nil
}

// raster produces the export composite and its scan result.
func (e *Exporter) raster(ctx context.Context, req Request) (*image.NRGBA, ScanResult, error) {
	qr, err := e.renderer.TrueColor(ctx, req.URL, req.Options, e.scale)
	if err != nil {
		return nil, ScanResult{}, err
	}
	img, err := composite.Export(qr, req.Logo, e.scale)
	if err != nil {
		return nil, ScanResult{}, err
	}
	return img, e.check(img, req.URL), nil
}

func (e *Exporter) check(img image.Image, want string) ScanResult {
	if !e.verify {
		return ScanResult{}
	}
	if err := scan.Verify(img, want); err != nil {
		e.log.WithError(err).Warn("exported code did not scan back")
		return ScanResult{Checked: true, Detail: err.Error()}
	}
	return ScanResult{Checked: true, OK: true}
}

func (e *Exporter) exportPNG(ctx context.Context, req Request) (*Artifact, error) {
	img, sr, err := e.raster(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, Scan: sr}, nil
}

// EncodePNG encodes img as PNG, wrapping failures in ErrExport.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: png: %v", entity.ErrExport, err)
	}
	return buf.Bytes(), nil
}
