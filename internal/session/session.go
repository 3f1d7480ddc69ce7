// Package session owns the transient state of one customization session:
// the options, the logo, the latest preview and the debounce timers that
// drive regeneration.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/composite"
	"github.com/cristianadrielbraun/custqr/internal/contrast"
	"github.com/cristianadrielbraun/custqr/internal/debounce"
	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/sirupsen/logrus"
)

// Debounce classes.
const (
	ClassURL       = "url"
	ClassStructure = "structure"
)

const (
	DefaultURLDelay       = 500 * time.Millisecond
	DefaultStructureDelay = 300 * time.Millisecond
)

type Config struct {
	Defaults       entity.Options
	URLDelay       time.Duration
	StructureDelay time.Duration
}

// Deps are shared by every session.
type Deps struct {
	Renderer *render.Renderer
	Logos    *logo.Processor
	Exporter *export.Exporter
	Log      *logrus.Entry
}

// State is a point-in-time snapshot of a session.
type State struct {
	ID        string             `json:"id"`
	Input     string             `json:"input"`
	URL       string             `json:"url"`
	Options   entity.Options     `json:"options"`
	HasQR     bool               `json:"hasQR"`
	Rendered  *entity.RenderKey  `json:"rendered,omitempty"`
	Version   uint64             `json:"version"`
	Renders   uint64             `json:"renders"`
	Pending   bool               `json:"pending"`
	LastError string             `json:"lastError,omitempty"`
	Contrast  entity.ColorResult `json:"contrast"`
	Logo      *entity.LogoAsset  `json:"logo,omitempty"`
}

type Session struct {
	ID string

	cfg  Config
	deps Deps
	log  *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	timers *debounce.Debouncer
	render func(context.Context, string, entity.Options) (*image.NRGBA, error)

	mu       sync.Mutex
	input    string
	url      string
	opts     entity.Options
	logo     *entity.LogoAsset
	mask     *image.NRGBA
	maskKey  entity.RenderKey
	png      []byte
	version  uint64
	seq      uint64
	applied  uint64
	renders  uint64
	lastErr  error
	lastSeen time.Time
	closed   bool
	updated  chan struct{}
}

func New(id string, cfg Config, deps Deps) *Session {
	if cfg.URLDelay <= 0 {
		cfg.URLDelay = DefaultURLDelay
	}
	if cfg.StructureDelay <= 0 {
		cfg.StructureDelay = DefaultStructureDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:       id,
		cfg:      cfg,
		deps:     deps,
		log:      deps.Log.WithField("session", id),
		ctx:      ctx,
		cancel:   cancel,
		timers:   debounce.New(),
		render:   deps.Renderer.Mask,
		opts:     cfg.Defaults,
		lastSeen: time.Now(),
		updated:  make(chan struct{}),
	}
}

// SetURL records raw input. A valid URL schedules a regeneration on the URL
// class; anything else cancels the pending one. Clearing the field drops the
// displayed code.
func (s *Session) SetURL(raw string) entity.Result {
	res := validate.CheckURL(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.input = raw

	if !res.Valid {
		s.timers.Cancel(ClassURL)
		if validate.SanitizeURL(raw) == "" {
			s.url = ""
			s.clearLocked()
		}
		return res
	}

	s.url = validate.SanitizeURL(raw)
	s.timers.Schedule(ClassURL, s.cfg.URLDelay, s.regenerateAsync)
	return res
}

// SetWidth parses raw against the width bounds. The value it returns is
// applied even when the result is invalid, because a clamp or default is
// itself the recovery.
func (s *Session) SetWidth(raw string) entity.NumericResult {
	res := validate.NumericInput(raw, entity.WidthBounds.Min, entity.WidthBounds.Max, s.cfg.Defaults.Width)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Width = res.Value
	s.structureChangedLocked()
	return res
}

func (s *Session) SetMargin(raw string) entity.NumericResult {
	res := validate.NumericInput(raw, entity.MarginBounds.Min, entity.MarginBounds.Max, s.cfg.Defaults.Margin)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Margin = res.Value
	s.structureChangedLocked()
	return res
}

func (s *Session) SetLevel(raw string) error {
	l, err := entity.ParseLevel(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Level = l
	s.structureChangedLocked()
	return nil
}

// structureChangedLocked only debounces when a code is on screen; otherwise
// the pending URL regeneration picks the new value up when it fires.
func (s *Session) structureChangedLocked() {
	s.touchLocked()
	if s.mask == nil || s.url == "" {
		return
	}
	s.timers.Schedule(ClassStructure, s.cfg.StructureDelay, s.regenerateAsync)
}

// SetColors applies whichever of dark and light are valid hex and recolors
// the current mask immediately. An invalid value leaves the last valid one
// in place. The returned contrast is for the colors now in effect.
func (s *Session) SetColors(dark, light *string) (entity.ColorResult, error) {
	var firstErr error
	check := func(v *string, side string) bool {
		if v == nil {
			return false
		}
		if err := validate.HexColor(*v); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", side, err)
			}
			return false
		}
		return true
	}
	okDark := check(dark, "foreground")
	okLight := check(light, "background")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if okDark {
		s.opts.Color.Dark = *dark
	}
	if okLight {
		s.opts.Color.Light = *light
	}
	if (okDark || okLight) && s.mask != nil {
		if err := s.recompositeLocked(); err != nil {
			return contrast.Check(s.opts.Color.Dark, s.opts.Color.Light), err
		}
	}
	return contrast.Check(s.opts.Color.Dark, s.opts.Color.Light), firstErr
}

// UploadLogo replaces the logo only when processing fully succeeds.
func (s *Session) UploadLogo(ctx context.Context, meta entity.FileMeta, data []byte) (*entity.LogoAsset, error) {
	asset, err := s.deps.Logos.Process(ctx, meta, data)
	if err != nil {
		s.log.WithError(err).WithField("file", meta.Name).Info("logo rejected")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.closed {
		return nil, entity.ErrSessionNotFound
	}
	prev := s.logo
	s.logo = asset
	if s.mask != nil {
		if err := s.recompositeLocked(); err != nil {
			s.logo = prev
			return nil, err
		}
	}
	return asset, nil
}

func (s *Session) RemoveLogo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.logo = nil
	if s.mask != nil {
		if err := s.recompositeLocked(); err != nil {
			s.log.WithError(err).Warn("recomposite after logo removal failed")
		}
	}
}

func (s *Session) regenerateAsync() {
	if err := s.Regenerate(s.ctx); err != nil {
		s.log.WithError(err).Debug("regeneration failed")
	}
}

// Regenerate renders a new mask from the options in effect now. Every call
// takes a sequence number; a completion older than the last applied one is
// discarded, so a slow render never overwrites a newer one.
func (s *Session) Regenerate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.url == "" {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	seq := s.seq
	url, opts := s.url, s.opts
	s.renders++
	s.mu.Unlock()

	mask, err := s.render(ctx, url, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if seq <= s.applied {
		s.log.WithFields(logrus.Fields{"seq": seq, "applied": s.applied}).Debug("stale render discarded")
		return nil
	}
	s.applied = seq
	if err != nil {
		// no code is shown for input the encoder rejected
		s.dropPreviewLocked()
		s.lastErr = err
		s.notifyLocked()
		return err
	}

	s.mask = mask
	s.maskKey = opts.Key(url)
	s.lastErr = nil
	return s.recompositeLocked()
}

func (s *Session) recompositeLocked() error {
	img, err := composite.Preview(s.mask, s.opts.Color, s.logo)
	if err != nil {
		s.lastErr = err
		return err
	}
	data, err := export.EncodePNG(img)
	if err != nil {
		s.lastErr = err
		return err
	}
	s.png = data
	s.version++
	s.notifyLocked()
	s.log.WithField("version", s.version).Debug("preview updated")
	return nil
}

func (s *Session) clearLocked() {
	if s.mask == nil {
		return
	}
	s.dropPreviewLocked()
	s.timers.Cancel(ClassStructure)
	s.notifyLocked()
}

// dropPreviewLocked forgets the rendered code. Pending timers are left alone.
func (s *Session) dropPreviewLocked() {
	if s.mask == nil && s.png == nil {
		return
	}
	s.mask = nil
	s.png = nil
	s.maskKey = entity.RenderKey{}
	s.version++
}

func (s *Session) notifyLocked() {
	close(s.updated)
	s.updated = make(chan struct{})
}

// Updated returns a channel closed at the next state change.
func (s *Session) Updated() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// Preview returns the latest preview PNG and its version.
func (s *Session) Preview() ([]byte, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.png == nil {
		return nil, s.version, entity.ErrNoQR
	}
	return s.png, s.version, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:       s.ID,
		Input:    s.input,
		URL:      s.url,
		Options:  s.opts,
		HasQR:    s.mask != nil,
		Version:  s.version,
		Renders:  s.renders,
		Pending:  s.timers.Pending(ClassURL) || s.timers.Pending(ClassStructure),
		Contrast: contrast.Check(s.opts.Color.Dark, s.opts.Color.Light),
		Logo:     s.logo,
	}
	if s.mask != nil {
		k := s.maskKey
		k.Dark, k.Light = s.opts.Color.Dark, s.opts.Color.Light
		st.Rendered = &k
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Export renders the current options with true colors at export resolution.
func (s *Session) Export(ctx context.Context, f export.Format) (*export.Artifact, error) {
	s.mu.Lock()
	s.touchLocked()
	req := export.Request{URL: s.url, Options: s.opts, Logo: s.logo}
	s.mu.Unlock()

	if req.URL == "" {
		return nil, fmt.Errorf("%w: %w", entity.ErrExport, entity.ErrNoQR)
	}
	return s.deps.Exporter.Export(ctx, req, f)
}

// Close cancels pending timers and releases the logo and rendered images.
// It is safe to call more than once.
func (s *Session) Close() {
	s.timers.Stop()
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logo = nil
	s.mask = nil
	s.png = nil
	s.notifyLocked()
}

func (s *Session) touchLocked() { s.lastSeen = time.Now() }

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
