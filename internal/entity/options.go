package entity

import (
	"fmt"
	"strings"
)

// Level is a QR error-correction level.
type Level string

const (
	LevelLow     Level = "L"
	LevelMedium  Level = "M"
	LevelQuart   Level = "Q"
	LevelHighest Level = "H"
)

// ParseLevel accepts L, M, Q or H in any case.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelLow, LevelMedium, LevelQuart, LevelHighest:
		return l, nil
	}
	return "", fmt.Errorf("%w: error correction level %q, want one of L, M, Q, H", ErrFormat, s)
}

// Colors holds the module (dark) and background (light) colors as hex strings.
type Colors struct {
	Dark  string `json:"dark"`
	Light string `json:"light"`
}

// Bounds is an inclusive integer range.
type Bounds struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// Clamp returns v limited to [b.Min, b.Max].
func (b Bounds) Clamp(v int) int {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

func (b Bounds) Contains(v int) bool { return v >= b.Min && v <= b.Max }

var (
	WidthBounds  = Bounds{Min: 128, Max: 512}
	MarginBounds = Bounds{Min: 0, Max: 10}
)

// Options are the user-tunable QR parameters. Width and Margin always stay
// inside WidthBounds and MarginBounds; Dark and Light are always valid hex.
type Options struct {
	Level  Level  `json:"level"`
	Width  int    `json:"width"`
	Margin int    `json:"margin"`
	Color  Colors `json:"color"`
}

// DefaultOptions mirrors the shipped theme.
func DefaultOptions() Options {
	return Options{
		Level:  LevelMedium,
		Width:  256,
		Margin: 4,
		Color:  Colors{Dark: "#1e293b", Light: "#ffffff"},
	}
}

// RenderKey identifies one encoder output. Two renders with equal keys are
// interchangeable.
type RenderKey struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Margin int    `json:"margin"`
	Level  Level  `json:"level"`
	Dark   string `json:"dark"`
	Light  string `json:"light"`
}

func (o Options) Key(url string) RenderKey {
	return RenderKey{
		URL:    url,
		Width:  o.Width,
		Margin: o.Margin,
		Level:  o.Level,
		Dark:   o.Color.Dark,
		Light:  o.Color.Light,
	}
}
