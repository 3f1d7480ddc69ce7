package logo

import (
	"fmt"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/validate"
)

// Limits bound what an upload may be, in bytes and in pixels.
type Limits struct {
	File      validate.FileLimits
	MinPixels int
	MaxPixels int
}

const (
	ProfileEnterprise = "enterprise"
	ProfileBaseline   = "baseline"
)

var (
	Enterprise = Limits{
		File:      validate.FileLimits{MaxBytes: 5 << 20, MinBytes: 100},
		MinPixels: 16,
		MaxPixels: 4096,
	}
	Baseline = Limits{
		File:      validate.FileLimits{MaxBytes: 2 << 20},
		MinPixels: 32,
		MaxPixels: 2048,
	}
)

func ProfileLimits(name string) (Limits, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileEnterprise:
		return Enterprise, nil
	case ProfileBaseline:
		return Baseline, nil
	}
	return Limits{}, fmt.Errorf("unknown logo profile %q", name)
}
