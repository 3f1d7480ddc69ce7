// Package logo turns an uploaded file into a bounded, re-encoded LogoAsset.
package logo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge       = 512
	DefaultDecodeTimeout = 10 * time.Second

	largeSourceBytes = 1 << 20
	jpegQualityLarge = 85
	jpegQuality      = 95
)

type Processor struct {
	limits        Limits
	maxEdge       int
	decodeTimeout time.Duration
	log           *logrus.Entry
}

func NewProcessor(limits Limits, maxEdge int, decodeTimeout time.Duration, log *logrus.Entry) *Processor {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if decodeTimeout <= 0 {
		decodeTimeout = DefaultDecodeTimeout
	}
	return &Processor{
		limits:        limits,
		maxEdge:       maxEdge,
		decodeTimeout: decodeTimeout,
		log:           log,
	}
}

func (p *Processor) Limits() Limits { return p.limits }

// Process validates, decodes, bounds and re-encodes an upload. It never
// returns a partial asset: any failure leaves the caller's current logo alone.
func (p *Processor) Process(ctx context.Context, meta entity.FileMeta, data []byte) (*entity.LogoAsset, error) {
	meta.Size = int64(len(data))
	if err := validate.FileUpload(meta, p.limits.File); err != nil {
		return nil, err
	}

	sniffed := mimetype.Detect(data)
	if !validate.AllowedMIME(sniffed.String()) {
		return nil, fmt.Errorf("%w: content is %s, not an allowed image type", entity.ErrFileValidation, sniffed.String())
	}
	mimeType := baseMIME(sniffed.String())
	if declared := baseMIME(meta.MIMEType); declared != mimeType {
		p.log.WithFields(logrus.Fields{
			"declared": declared,
			"sniffed":  mimeType,
			"file":     meta.Name,
		}).Warn("declared logo type differs from content")
	}

	img, err := p.decode(ctx, mimeType, data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > p.maxEdge || b.Dy() > p.maxEdge {
		img = imaging.Fit(img, p.maxEdge, p.maxEdge, imaging.Lanczos)
	}

	out, outMIME, err := reencode(img, mimeType, len(data))
	if err != nil {
		return nil, fmt.Errorf("%w: re-encode: %v", entity.ErrImageDecode, err)
	}

	asset := &entity.LogoAsset{
		Image:        img,
		Data:         out,
		DataURL:      "data:" + outMIME + ";base64," + base64.StdEncoding.EncodeToString(out),
		MIMEType:     outMIME,
		OriginalName: meta.Name,
		OriginalSize: meta.Size,
		ByteSize:     len(out),
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
	}
	p.log.WithFields(logrus.Fields{
		"file":   meta.Name,
		"source": fmt.Sprintf("%dx%d %s", b.Dx(), b.Dy(), mimeType),
		"result": fmt.Sprintf("%dx%d %s", asset.Width, asset.Height, outMIME),
		"bytes":  asset.ByteSize,
	}).Debug("logo processed")
	return asset, nil
}

type decodeResult struct {
	img image.Image
	err error
}

// decode runs the decoder under a deadline. The result channel is buffered so
// a decoder that finishes after the deadline does not block forever.
func (p *Processor) decode(ctx context.Context, mimeType string, data []byte) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, p.decodeTimeout)
	defer cancel()

	done := make(chan decodeResult, 1)
	go func() {
		var r decodeResult
		if mimeType == "image/svg+xml" {
			r.img, r.err = p.rasterizeSVG(data)
		} else {
			r.img, r.err = p.decodeRaster(data)
		}
		done <- r
	}()

	select {
	case r := <-done:
		return r.img, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: decode did not finish: %v", entity.ErrImageDecode, ctx.Err())
	}
}

func (p *Processor) decodeRaster(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	if err := p.checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
	}
	return img, nil
}

// rasterizeSVG draws the icon to fit the bounded edge. Vector sources are
// never too large in pixels, but their viewBox must meet the minimum.
func (p *Processor) rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: svg: %v", entity.ErrImageDecode, err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		return nil, fmt.Errorf("%w: svg has no usable viewBox", entity.ErrImageDecode)
	}
	if int(vw) < p.limits.MinPixels || int(vh) < p.limits.MinPixels {
		return nil, fmt.Errorf("%w: %gx%g, minimum is %dpx", entity.ErrTooSmall, vw, vh, p.limits.MinPixels)
	}

	w, h := p.maxEdge, p.maxEdge
	if vw > vh {
		h = int(float64(p.maxEdge)*vh/vw + 0.5)
	} else if vh > vw {
		w = int(float64(p.maxEdge)*vw/vh + 0.5)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}

func (p *Processor) checkPixels(w, h int) error {
	if w < p.limits.MinPixels || h < p.limits.MinPixels {
		return fmt.Errorf("%w: %dx%d, minimum is %dpx", entity.ErrTooSmall, w, h, p.limits.MinPixels)
	}
	if p.limits.MaxPixels > 0 && (w > p.limits.MaxPixels || h > p.limits.MaxPixels) {
		return fmt.Errorf("%w: %dx%d, maximum is %dpx", entity.ErrTooLarge, w, h, p.limits.MaxPixels)
	}
	return nil
}

// reencode keeps transparency for everything except JPEG sources, which stay
// JPEG at a quality that drops for large inputs.
func reencode(img image.Image, srcMIME string, srcBytes int) ([]byte, string, error) {
	var buf bytes.Buffer
	if srcMIME == "image/jpeg" {
		q := jpegQuality
		if srcBytes > largeSourceBytes {
			q = jpegQualityLarge
		}
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

// baseMIME drops parameters such as charset.
func baseMIME(s string) string {
	t, _, _ := strings.Cut(s, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
