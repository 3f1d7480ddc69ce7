// Package config loads service settings from config.yaml, CUSTQR_* environment
// variables and built-in defaults, in increasing order of precedence for env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/spf13/viper"
)

const envPrefix = "CUSTQR"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	QR       QRConfig       `mapstructure:"qr"`
	Logo     LogoConfig     `mapstructure:"logo"`
	Debounce DebounceConfig `mapstructure:"debounce"`
	Session  SessionConfig  `mapstructure:"session"`
	Export   ExportConfig   `mapstructure:"export"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type QRConfig struct {
	Width       int    `mapstructure:"width"`
	Margin      int    `mapstructure:"margin"`
	Level       string `mapstructure:"level"`
	Dark        string `mapstructure:"dark"`
	Light       string `mapstructure:"light"`
	ExportScale int    `mapstructure:"export_scale"`
	Encoder     string `mapstructure:"encoder"`
}

type LogoConfig struct {
	Profile       string        `mapstructure:"profile"`
	MaxEdge       int           `mapstructure:"max_edge"`
	DecodeTimeout time.Duration `mapstructure:"decode_timeout"`
}

type DebounceConfig struct {
	URL       time.Duration `mapstructure:"url"`
	Structure time.Duration `mapstructure:"structure"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ExportConfig struct {
	Verify bool `mapstructure:"verify"`
}

// LoadConfig reads config.yaml from paths (default "." and "./config").
// A missing file is not an error; defaults and env cover every key.
func LoadConfig(paths ...string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if _, err := c.QR.Options(); err != nil {
		return err
	}
	if c.QR.ExportScale < 1 || c.QR.ExportScale > 8 {
		return fmt.Errorf("qr.export_scale %d outside 1-8", c.QR.ExportScale)
	}
	if _, err := render.NewEncoder(c.QR.Encoder); err != nil {
		return err
	}
	if _, err := logo.ProfileLimits(c.Logo.Profile); err != nil {
		return err
	}
	if c.Logo.MaxEdge < 16 {
		return fmt.Errorf("logo.max_edge %d is too small", c.Logo.MaxEdge)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q, want debug, release or test", c.Server.Mode)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q, want json or text", c.Log.Format)
	}
	return nil
}

// Options converts the qr section into default session options.
func (q QRConfig) Options() (entity.Options, error) {
	level, err := entity.ParseLevel(q.Level)
	if err != nil {
		return entity.Options{}, fmt.Errorf("qr.level: %w", err)
	}
	if !entity.WidthBounds.Contains(q.Width) {
		return entity.Options{}, fmt.Errorf("qr.width %d outside %d-%d", q.Width, entity.WidthBounds.Min, entity.WidthBounds.Max)
	}
	if !entity.MarginBounds.Contains(q.Margin) {
		return entity.Options{}, fmt.Errorf("qr.margin %d outside %d-%d", q.Margin, entity.MarginBounds.Min, entity.MarginBounds.Max)
	}
	if err := validate.HexColor(q.Dark); err != nil {
		return entity.Options{}, fmt.Errorf("qr.dark: %w", err)
	}
	if err := validate.HexColor(q.Light); err != nil {
		return entity.Options{}, fmt.Errorf("qr.light: %w", err)
	}
	return entity.Options{
		Level:  level,
		Width:  q.Width,
		Margin: q.Margin,
		Color:  entity.Colors{Dark: q.Dark, Light: q.Light},
	}, nil
}

func (s ServerConfig) Addr() string { return ":" + s.Port }

func setDefaults(v *viper.Viper) {
	d := entity.DefaultOptions()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("qr.width", d.Width)
	v.SetDefault("qr.margin", d.Margin)
	v.SetDefault("qr.level", string(d.Level))
	v.SetDefault("qr.dark", d.Color.Dark)
	v.SetDefault("qr.light", d.Color.Light)
	v.SetDefault("qr.export_scale", 2)
	v.SetDefault("qr.encoder", render.EncoderYeqown)

	v.SetDefault("logo.profile", logo.ProfileEnterprise)
	v.SetDefault("logo.max_edge", logo.DefaultMaxEdge)
	v.SetDefault("logo.decode_timeout", logo.DefaultDecodeTimeout)

	v.SetDefault("debounce.url", 500*time.Millisecond)
	v.SetDefault("debounce.structure", 300*time.Millisecond)

	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("export.verify", true)
}
