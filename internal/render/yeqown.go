package render

import (
	"fmt"
	"image"
	"io"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

type yeqownEncoder struct{}

func (yeqownEncoder) Name() string { return EncoderYeqown }

func (yeqownEncoder) symbol(content string, level entity.Level) (*qrcode.QRCode, error) {
	return qrcode.NewWith(content, yeqownLevel(level))
}

func (e yeqownEncoder) Dimension(content string, level entity.Level) (int, error) {
	qrc, err := e.symbol(content, level)
	if err != nil {
		return 0, err
	}
	return qrc.Dimension(), nil
}

func (e yeqownEncoder) Raster(content string, spec Spec) (image.Image, error) {
	qrc, err := e.symbol(content, spec.Level)
	if err != nil {
		return nil, err
	}
	if spec.ModulePx < 1 || spec.ModulePx > 255 {
		return nil, fmt.Errorf("module size %d outside 1-255", spec.ModulePx)
	}

	capture := &imageCapture{}
	opts := []standard.ImageOption{
		standard.WithQRWidth(uint8(spec.ModulePx)),
		standard.WithBorderWidth(spec.Margin * spec.ModulePx),
		standard.WithFgColor(spec.Dark),
		standard.WithCustomImageEncoder(capture),
	}
	if spec.Light == nil {
		opts = append(opts, standard.WithBgTransparent())
	} else {
		opts = append(opts, standard.WithBgColor(spec.Light))
	}

	w := standard.NewWithWriter(nopWriteCloser{io.Discard}, opts...)
	if err := qrc.Save(w); err != nil {
		return nil, err
	}
	if capture.img == nil {
		return nil, fmt.Errorf("writer produced no image")
	}
	return capture.img, nil
}

func (e yeqownEncoder) Modules(content string, level entity.Level) ([][]bool, error) {
	qrc, err := e.symbol(content, level)
	if err != nil {
		return nil, err
	}
	mw := &matrixWriter{}
	if err := qrc.Save(mw); err != nil {
		return nil, err
	}
	return mw.modules, nil
}

func yeqownLevel(l entity.Level) qrcode.EncodeOption {
	switch l {
	case entity.LevelLow:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow)
	case entity.LevelQuart:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart)
	case entity.LevelHighest:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest)
	default:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium)
	}
}

// imageCapture keeps the drawn image instead of serialising it.
type imageCapture struct {
	img image.Image
}

func (c *imageCapture) Encode(_ io.Writer, img image.Image) error {
	c.img = img
	return nil
}

// matrixWriter implements qrcode.Writer and records which modules are set.
type matrixWriter struct {
	modules [][]bool
}

func (m *matrixWriter) Write(mat qrcode.Matrix) error {
	m.modules = make([][]bool, mat.Height())
	for i := range m.modules {
		m.modules[i] = make([]bool, mat.Width())
	}
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		m.modules[y][x] = v.IsSet()
	})
	return nil
}

func (m *matrixWriter) Close() error { return nil }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Symbol encodes content with the yeqown backend so callers can hand it to
// other qrcode writers, such as the terminal one.
func Symbol(content string, level entity.Level) (*qrcode.QRCode, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", entity.ErrEncode)
	}
	qrc, err := yeqownEncoder{}.symbol(content, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	return qrc, nil
}
