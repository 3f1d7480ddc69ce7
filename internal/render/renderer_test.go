package render

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/scan"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, name string) *Renderer {
	t.Helper()
	enc, err := NewEncoder(name)
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(enc, logrus.NewEntry(log))
}

func TestNewEncoder(t *testing.T) {
	for _, name := range []string{"", "yeqown", "SKIP2"} {
		_, err := NewEncoder(name)
		assert.NoError(t, err, name)
	}
	_, err := NewEncoder("zint")
	assert.Error(t, err)
}

func TestModulePixels(t *testing.T) {
	assert.Equal(t, 9, ModulePixels(256, 21, 4))
	assert.Equal(t, 1, ModulePixels(10, 21, 4))
	assert.Equal(t, 255, ModulePixels(100000, 21, 0))
	assert.Equal(t, 1, ModulePixels(128, 0, 0))
}

func TestMaskExactWidthAndBinary(t *testing.T) {
	for _, name := range []string{EncoderYeqown, EncoderSkip2} {
		t.Run(name, func(t *testing.T) {
			r := newTestRenderer(t, name)
			for _, w := range []int{128, 200, 256, 333, 512} {
				o := entity.DefaultOptions()
				o.Width = w
				img, err := r.Mask(context.Background(), "https://example.com", o)
				require.NoError(t, err)
				assert.Equal(t, w, img.Bounds().Dx())
				assert.Equal(t, w, img.Bounds().Dy())

				for i := 3; i < len(img.Pix); i += 4 {
					a := img.Pix[i]
					if a != 0 && a != 0xff {
						t.Fatalf("width %d: alpha %d at %d is not binary", w, a, i)
					}
				}
			}
		})
	}
}

func TestMaskQuietZoneIsTransparent(t *testing.T) {
	r := newTestRenderer(t, EncoderYeqown)
	o := entity.DefaultOptions()
	o.Margin = 4
	img, err := r.Mask(context.Background(), "https://example.com", o)
	require.NoError(t, err)

	assert.Zero(t, img.NRGBAAt(0, 0).A)
	assert.Zero(t, img.NRGBAAt(o.Width-1, o.Width-1).A)
}

func TestTrueColorScans(t *testing.T) {
	for _, name := range []string{EncoderYeqown, EncoderSkip2} {
		t.Run(name, func(t *testing.T) {
			r := newTestRenderer(t, name)
			o := entity.DefaultOptions()
			img, err := r.TrueColor(context.Background(), "https://example.com", o, 2)
			require.NoError(t, err)
			assert.Equal(t, 512, img.Bounds().Dx())

			// corner pixel sits in the quiet zone
			c := img.NRGBAAt(0, 0)
			assert.Equal(t, uint8(0xff), c.R)
			assert.Equal(t, uint8(0xff), c.A)

			got, err := scan.Decode(img)
			require.NoError(t, err)
			assert.Equal(t, "https://example.com", got)
		})
	}
}

func TestLevelChangesSymbol(t *testing.T) {
	r := newTestRenderer(t, EncoderYeqown)
	low, err := r.Modules(context.Background(), "https://example.com/some/longer/path", entity.LevelLow)
	require.NoError(t, err)
	high, err := r.Modules(context.Background(), "https://example.com/some/longer/path", entity.LevelHighest)
	require.NoError(t, err)
	assert.Greater(t, len(high), len(low))
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(t, EncoderYeqown)

	_, err := r.Mask(context.Background(), "", entity.DefaultOptions())
	assert.True(t, errors.Is(err, entity.ErrEncode))

	o := entity.DefaultOptions()
	o.Color.Dark = "nope"
	_, err = r.TrueColor(context.Background(), "https://example.com", o, 1)
	assert.True(t, errors.Is(err, entity.ErrEncode))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Mask(ctx, "https://example.com", entity.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSymbol(t *testing.T) {
	qrc, err := Symbol("https://example.com", entity.LevelHighest)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, qrc.Dimension(), 21)

	_, err = Symbol("", entity.LevelMedium)
	assert.True(t, errors.Is(err, entity.ErrEncode))
}
