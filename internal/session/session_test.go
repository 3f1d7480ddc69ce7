package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/scan"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testURLDelay       = 40 * time.Millisecond
	testStructureDelay = 25 * time.Millisecond
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	enc, err := render.NewEncoder(render.EncoderYeqown)
	require.NoError(t, err)
	r := render.New(enc, log)
	return Deps{
		Renderer: r,
		Logos:    logo.NewProcessor(logo.Enterprise, logo.DefaultMaxEdge, logo.DefaultDecodeTimeout, log),
		Exporter: export.New(r, 2, true, log),
		Log:      log,
	}
}

func testConfig() Config {
	return Config{
		Defaults:       entity.DefaultOptions(),
		URLDelay:       testURLDelay,
		StructureDelay: testStructureDelay,
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New("test", testConfig(), testDeps(t))
	t.Cleanup(s.Close)
	return s
}

// waitFor blocks until cond holds or the deadline passes.
func waitFor(t *testing.T, s *Session, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		ch := s.Updated()
		st := s.State()
		if cond(st) {
			return st
		}
		select {
		case <-ch:
		case <-deadline:
			t.Fatalf("condition not met, state: %+v", st)
		}
	}
}

func hasQR(st State) bool { return st.HasQR }

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(x*x + 3*y*y), A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEndToEndDefaultOptions(t *testing.T) {
	s := newTestSession(t)

	res := s.SetURL("https://example.com")
	assert.True(t, res.Valid)
	assert.True(t, s.State().Pending)

	st := waitFor(t, s, hasQR)
	assert.Equal(t, "https://example.com", st.URL)
	assert.Equal(t, uint64(1), st.Renders)
	require.NotNil(t, st.Rendered)
	assert.Equal(t, 256, st.Rendered.Width)

	data, _, err := s.Preview()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	got, err := scan.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got)
}

func TestUnscannableColorsStillRender(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	waitFor(t, s, hasQR)

	dark, light := "#000000", "#000000"
	c, err := s.SetColors(&dark, &light)
	require.NoError(t, err)
	assert.True(t, c.Valid)
	assert.False(t, c.Scannable)
	assert.NotEmpty(t, c.Warning)

	st := s.State()
	assert.True(t, st.HasQR)
	assert.False(t, st.Contrast.Scannable)

	_, _, err = s.Preview()
	assert.NoError(t, err)

	art, err := s.Export(context.Background(), export.FormatPNG)
	require.NoError(t, err)
	assert.NotEmpty(t, art.Data)
}

func TestColorChangeSkipsEncoder(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("example.com")
	before := waitFor(t, s, hasQR)

	dark := "#e11d48"
	_, err := s.SetColors(&dark, nil)
	require.NoError(t, err)

	after := s.State()
	assert.Equal(t, before.Renders, after.Renders)
	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, "#e11d48", after.Rendered.Dark)
	assert.False(t, after.Pending)
}

func TestInvalidColorKeepsLastValid(t *testing.T) {
	s := newTestSession(t)
	bad := "#12"
	c, err := s.SetColors(&bad, nil)
	assert.True(t, errors.Is(err, entity.ErrFormat))
	assert.True(t, c.Valid)
	assert.Equal(t, "#1e293b", s.State().Options.Color.Dark)
}

func TestRapidWidthChangesRegenerateOnce(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	first := waitFor(t, s, hasQR)
	require.Equal(t, uint64(1), first.Renders)

	for _, w := range []string{"200", "300", "400"} {
		res := s.SetWidth(w)
		assert.True(t, res.Valid)
		time.Sleep(2 * time.Millisecond)
	}

	st := waitFor(t, s, func(st State) bool { return st.Rendered != nil && st.Rendered.Width == 400 })
	time.Sleep(3 * testStructureDelay)

	st = s.State()
	assert.Equal(t, uint64(2), st.Renders)
	assert.Equal(t, 400, st.Options.Width)

	data, _, err := s.Preview()
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
}

func TestWidthClampedAndApplied(t *testing.T) {
	s := newTestSession(t)

	res := s.SetWidth("1000")
	assert.False(t, res.Valid)
	assert.Equal(t, 512, res.Value)
	assert.Equal(t, 512, s.State().Options.Width)

	res = s.SetMargin("abc")
	assert.False(t, res.Valid)
	assert.Equal(t, 4, s.State().Options.Margin)

	// no code on screen, so nothing is scheduled
	assert.False(t, s.State().Pending)
}

func TestStructureChangeBeforeFirstRenderUsesFinalValue(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	require.NoError(t, s.SetLevel("h"))
	s.SetMargin("2")

	st := waitFor(t, s, hasQR)
	assert.Equal(t, uint64(1), st.Renders)
	assert.Equal(t, entity.LevelHighest, st.Rendered.Level)
	assert.Equal(t, 2, st.Rendered.Margin)
}

func TestInvalidURLCancelsPending(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	res := s.SetURL("not a url")
	assert.False(t, res.Valid)

	time.Sleep(3 * testURLDelay)
	st := s.State()
	assert.False(t, st.HasQR)
	assert.Zero(t, st.Renders)

	_, _, err := s.Preview()
	assert.True(t, errors.Is(err, entity.ErrNoQR))
}

func TestClearingURLDropsCode(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	waitFor(t, s, hasQR)

	s.SetURL("   ")
	st := s.State()
	assert.False(t, st.HasQR)
	assert.Empty(t, st.URL)
}

func TestLogoFailureKeepsPrevious(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	waitFor(t, s, hasQR)
	v := s.State().Version

	asset, err := s.UploadLogo(context.Background(), entity.FileMeta{Name: "brand.png", MIMEType: "image/png"}, logoPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "brand.png", asset.OriginalName)
	assert.Greater(t, s.State().Version, v)

	_, err = s.UploadLogo(context.Background(), entity.FileMeta{Name: "brand.exe", MIMEType: "image/png"}, logoPNG(t))
	assert.True(t, errors.Is(err, entity.ErrFileValidation))

	data := logoPNG(t)
	_, err = s.UploadLogo(context.Background(), entity.FileMeta{Name: "broken.png", MIMEType: "image/png"}, data[:len(data)/2])
	assert.Error(t, err)

	st := s.State()
	require.NotNil(t, st.Logo)
	assert.Equal(t, "brand.png", st.Logo.OriginalName)

	// the preview carries the logo: the center is no longer a QR module color
	preview, _, err := s.Preview()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(preview))
	require.NoError(t, err)
	assert.NotEqual(t, color.NRGBAModel.Convert(img.At(128, 128)), color.NRGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff})

	s.RemoveLogo()
	assert.Nil(t, s.State().Logo)
}

func TestStaleRenderDiscarded(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	s.timers.Cancel(ClassURL)

	real := s.render
	release := make(chan struct{})
	var calls sync.WaitGroup
	var n int
	var mu sync.Mutex
	s.render = func(ctx context.Context, url string, o entity.Options) (*image.NRGBA, error) {
		mu.Lock()
		n++
		first := n == 1
		mu.Unlock()
		if first {
			<-release
		}
		return real(ctx, url, o)
	}

	calls.Add(1)
	go func() {
		defer calls.Done()
		assert.NoError(t, s.Regenerate(context.Background()))
	}()
	// let the slow call take its sequence number first
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return n == 1
	}, time.Second, time.Millisecond)

	s.SetWidth("300")
	require.NoError(t, s.Regenerate(context.Background()))
	assert.Equal(t, 300, s.State().Rendered.Width)

	close(release)
	calls.Wait()

	st := s.State()
	assert.Equal(t, 300, st.Rendered.Width)
	assert.Equal(t, uint64(2), st.Renders)
}

func TestEncodeErrorClearsPreview(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	waitFor(t, s, hasQR)
	before := s.State()

	s.render = func(context.Context, string, entity.Options) (*image.NRGBA, error) {
		return nil, entity.ErrEncode
	}
	err := s.Regenerate(context.Background())
	assert.True(t, errors.Is(err, entity.ErrEncode))

	st := s.State()
	assert.False(t, st.HasQR)
	assert.Nil(t, st.Rendered)
	assert.Greater(t, st.Version, before.Version)
	assert.NotEmpty(t, st.LastError)

	_, _, err = s.Preview()
	assert.True(t, errors.Is(err, entity.ErrNoQR))
}

func TestURLTooLongForSymbolClearsPreview(t *testing.T) {
	s := newTestSession(t)
	s.SetURL("https://example.com")
	waitFor(t, s, hasQR)

	long := "https://example.com/" + strings.Repeat("a", 3500)
	s.SetURL(long)
	st := waitFor(t, s, func(st State) bool { return st.LastError != "" })
	assert.False(t, st.HasQR)
	assert.Equal(t, long, st.URL)

	_, _, err := s.Preview()
	assert.True(t, errors.Is(err, entity.ErrNoQR))
	_, err = s.Export(context.Background(), export.FormatPNG)
	assert.Error(t, err)
}

func TestExportRequiresURL(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Export(context.Background(), export.FormatPNG)
	assert.True(t, errors.Is(err, entity.ErrExport))
}

func TestCloseCancelsTimers(t *testing.T) {
	s := New("closing", testConfig(), testDeps(t))
	s.SetURL("https://example.com")
	s.Close()
	s.Close()

	time.Sleep(3 * testURLDelay)
	st := s.State()
	assert.False(t, st.HasQR)
	assert.False(t, st.Pending)
	assert.Zero(t, st.Renders)
}
