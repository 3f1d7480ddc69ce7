// Package contrast computes WCAG relative luminance and contrast ratios and
// decides whether a dark/light pair is distinguishable enough to scan.
package contrast

import (
	"fmt"
	"math"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/validate"
)

const (
	// ScannableRatio is the minimum module/background contrast accepted for
	// a QR code. It is not a text-legibility threshold.
	ScannableRatio = 3.0
	// WCAGTextAA is the WCAG 2 AA ratio for body text.
	WCAGTextAA = 4.5
)

// RelativeLuminance returns the WCAG 2 relative luminance of a hex color.
func RelativeLuminance(hex string) (float64, error) {
	c, err := validate.ParseHexColor(hex)
	if err != nil {
		return 0, err
	}
	r := linearize(c.R)
	g := linearize(c.G)
	b := linearize(c.B)
	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}

func linearize(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// Ratio returns (Lmax + 0.05) / (Lmin + 0.05) for two hex colors.
func Ratio(a, b string) (float64, error) {
	la, err := RelativeLuminance(a)
	if err != nil {
		return 0, err
	}
	lb, err := RelativeLuminance(b)
	if err != nil {
		return 0, err
	}
	return (math.Max(la, lb) + 0.05) / (math.Min(la, lb) + 0.05), nil
}

// Check validates both colors and classifies the pair. A pair below
// ScannableRatio is still valid but carries a warning.
func Check(dark, light string) entity.ColorResult {
	if err := validate.HexColor(dark); err != nil {
		return entity.ColorResult{Result: entity.Result{Error: "Foreground: " + err.Error()}}
	}
	if err := validate.HexColor(light); err != nil {
		return entity.ColorResult{Result: entity.Result{Error: "Background: " + err.Error()}}
	}
	ratio, err := Ratio(dark, light)
	if err != nil {
		return entity.ColorResult{Result: entity.Result{Error: err.Error()}}
	}
	res := entity.ColorResult{
		Result:        entity.Result{Valid: true},
		ContrastRatio: ratio,
		Scannable:     ratio >= ScannableRatio,
	}
	if !res.Scannable {
		res.Warning = fmt.Sprintf("Low contrast (%.2f:1). The QR code may not scan; aim for at least %.1f:1.", ratio, ScannableRatio)
	}
	return res
}
