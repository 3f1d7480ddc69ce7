package export

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/go-pdf/fpdf"
)

const (
	pdfTitle     = "CustQR Code"
	pdfCreator   = "custqr"
	pdfMaxRatio  = 0.8
	pxPerInch    = 96.0
	mmPerInch    = 25.4
	pdfImageName = "qr"
)

// exportPDF centers the export composite on an A4 page at its natural size,
// shrunk if needed to stay within 80% of the page's shorter side.
func (e *Exporter) exportPDF(ctx context.Context, req Request) (*Artifact, error) {
	img, sr, err := e.raster(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(pdfTitle, false)
	pdf.SetSubject("QR code for "+req.URL, true)
	pdf.SetCreator(pdfCreator, false)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	side := PDFImageSide(img.Bounds().Dx(), pageW, pageH)
	x := (pageW - side) / 2
	y := (pageH - side) / 2

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfImageName, opts, bytes.NewReader(data))
	pdf.ImageOptions(pdfImageName, x, y, side, side, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", entity.ErrExport, err)
	}
	return &Artifact{Data: buf.Bytes(), Scan: sr}, nil
}

// PDFImageSide returns the printed side length in millimetres for a raster
// of px pixels on a page of the given size.
func PDFImageSide(px int, pageW, pageH float64) float64 {
	natural := float64(px) / pxPerInch * mmPerInch
	return math.Min(natural, pdfMaxRatio*math.Min(pageW, pageH))
}
