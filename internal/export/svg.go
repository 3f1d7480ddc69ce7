package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	svgo "github.com/ajstarks/svgo"
	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/validate"
)

const rasterFallbackDesc = "Raster image embedded in SVG: a logo was present, so this file does not scale as a vector."

// exportVectorSVG draws the module grid directly. The viewBox is in module
// units and the declared size is the pixel width the user picked.
func (e *Exporter) exportVectorSVG(ctx context.Context, req Request) (*Artifact, error) {
	mods, err := e.renderer.Modules(ctx, req.URL, req.Options.Level)
	if err != nil {
		return nil, err
	}
	dark, err := validate.ParseHexColor(req.Options.Color.Dark)
	if err != nil {
		return nil, fmt.Errorf("%w: foreground: %v", entity.ErrExport, err)
	}
	light, err := validate.ParseHexColor(req.Options.Color.Light)
	if err != nil {
		return nil, fmt.Errorf("%w: background: %v", entity.ErrExport, err)
	}

	margin := req.Options.Margin
	total := len(mods) + 2*margin
	size := req.Options.Width

	var buf bytes.Buffer
	canvas := svgo.New(&buf)
	canvas.Startview(size, size, 0, 0, total, total)
	canvas.Title("QR code for " + req.URL)
	canvas.Rect(0, 0, total, total, fmt.Sprintf("fill:#%02x%02x%02x", light.R, light.G, light.B))
	canvas.Path(modulePath(mods, margin), fmt.Sprintf("fill:#%02x%02x%02x;shape-rendering:crispEdges", dark.R, dark.G, dark.B))
	canvas.End()

	return &Artifact{Data: buf.Bytes(), Vector: true}, nil
}

// modulePath merges horizontal runs of dark modules into one rectangle each.
func modulePath(mods [][]bool, margin int) string {
	var sb strings.Builder
	for y, row := range mods {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&sb, "M%d %dh%dv1h-%dz", start+margin, y+margin, x-start, x-start)
		}
	}
	return sb.String()
}

// exportRasterSVG wraps the export composite in an SVG document whose size
// and viewBox equal the raster's pixel size.
func (e *Exporter) exportRasterSVG(ctx context.Context, req Request) (*Artifact, error) {
	img, sr, err := e.raster(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var buf bytes.Buffer
	canvas := svgo.New(&buf)
	canvas.Startview(w, h, 0, 0, w, h)
	canvas.Title("QR code for " + req.URL)
	canvas.Desc(rasterFallbackDesc)
	canvas.Image(0, 0, w, h, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	canvas.End()

	return &Artifact{Data: buf.Bytes(), Vector: false, Scan: sr}, nil
}
