package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	v, err := LoadConfig(dir)
	require.NoError(t, err)
	return ParseConfig(v)
}

func TestDefaultsWithoutFile(t *testing.T) {
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 256, cfg.QR.Width)
	assert.Equal(t, 2, cfg.QR.ExportScale)
	assert.Equal(t, "yeqown", cfg.QR.Encoder)
	assert.Equal(t, "enterprise", cfg.Logo.Profile)
	assert.Equal(t, 10*time.Second, cfg.Logo.DecodeTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce.URL)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce.Structure)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.True(t, cfg.Export.Verify)

	opts, err := cfg.QR.Options()
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultOptions(), opts)
}

func TestFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "9000"
qr:
  width: 320
  level: q
  encoder: skip2
logo:
  profile: baseline
debounce:
  url: 750ms
log:
  format: json
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("CUSTQR_QR_MARGIN", "6")

	cfg, err := load(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 320, cfg.QR.Width)
	assert.Equal(t, 6, cfg.QR.Margin)
	assert.Equal(t, "skip2", cfg.QR.Encoder)
	assert.Equal(t, "baseline", cfg.Logo.Profile)
	assert.Equal(t, 750*time.Millisecond, cfg.Debounce.URL)
	assert.Equal(t, "json", cfg.Log.Format)

	opts, err := cfg.QR.Options()
	require.NoError(t, err)
	assert.Equal(t, entity.LevelQuart, opts.Level)
}

func TestPortEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	cfg, err := load(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]string{
		"bad width":   "CUSTQR_QR_WIDTH=4000",
		"bad color":   "CUSTQR_QR_DARK=navy",
		"bad level":   "CUSTQR_QR_LEVEL=X",
		"bad encoder": "CUSTQR_QR_ENCODER=zint",
		"bad profile": "CUSTQR_LOGO_PROFILE=gold",
		"bad scale":   "CUSTQR_QR_EXPORT_SCALE=0",
		"bad format":  "CUSTQR_LOG_FORMAT=xml",
		"bad mode":    "CUSTQR_SERVER_MODE=prod",
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < len(kv); i++ {
				if kv[i] == '=' {
					t.Setenv(kv[:i], kv[i+1:])
					break
				}
			}
			_, err := load(t, t.TempDir())
			assert.Error(t, err)
		})
	}
}
