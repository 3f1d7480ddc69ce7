package render

import (
	"image"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	skipqr "github.com/skip2/go-qrcode"
)

// skip2Encoder draws from skip2's bitmap because its Image method centres the
// symbol inside a fixed canvas and cannot express an exact quiet zone.
type skip2Encoder struct{}

func (skip2Encoder) Name() string { return EncoderSkip2 }

func (skip2Encoder) bitmap(content string, level entity.Level) ([][]bool, error) {
	q, err := skipqr.New(content, skip2Level(level))
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}

func (e skip2Encoder) Dimension(content string, level entity.Level) (int, error) {
	bm, err := e.bitmap(content, level)
	if err != nil {
		return 0, err
	}
	return len(bm), nil
}

func (e skip2Encoder) Raster(content string, spec Spec) (image.Image, error) {
	bm, err := e.bitmap(content, spec.Level)
	if err != nil {
		return nil, err
	}
	return rasterizeModules(bm, spec), nil
}

func (e skip2Encoder) Modules(content string, level entity.Level) ([][]bool, error) {
	return e.bitmap(content, level)
}

// skip2 names the four levels Low, Medium, High, Highest.
func skip2Level(l entity.Level) skipqr.RecoveryLevel {
	switch l {
	case entity.LevelLow:
		return skipqr.Low
	case entity.LevelQuart:
		return skipqr.High
	case entity.LevelHighest:
		return skipqr.Highest
	default:
		return skipqr.Medium
	}
}
