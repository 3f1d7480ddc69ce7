// Package validate holds the pure input checks used before anything reaches
// the renderer: hex colors, URLs, numeric fields and logo uploads.
package validate

import (
	"fmt"
	"image/color"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/entity"
)

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	looseURLRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}(?::\d{1,5})?(?:[/?#]\S*)?$`)
)

const maxURLLength = 4096

// HexColor fails with ErrFormat unless s is #RGB or #RRGGBB.
func HexColor(s string) error {
	if !hexColorRe.MatchString(s) {
		return fmt.Errorf("%w: color %q must be #RGB or #RRGGBB", entity.ErrFormat, s)
	}
	return nil
}

// ParseHexColor decodes a #RGB or #RRGGBB string into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	if err := HexColor(s); err != nil {
		return color.NRGBA{}, err
	}
	h := s[1:]
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", entity.ErrFormat, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// URL reports whether s looks like something a QR code should point at. It
// accepts a loose host/path shape, an absolute http(s) URL, or a string that
// becomes one once https:// is prefixed.
func URL(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" || len(v) > maxURLLength || strings.ContainsAny(v, " \t\r\n") {
		return false
	}
	if looseURLRe.MatchString(v) {
		return true
	}
	if isHTTPURL(v) {
		return true
	}
	return !hasScheme(v) && isHTTPURL("https://"+v)
}

// CheckURL is URL with a user-facing message.
func CheckURL(s string) entity.Result {
	if strings.TrimSpace(s) == "" {
		return entity.Result{Error: "Please enter a URL"}
	}
	if !URL(s) {
		return entity.Result{Error: fmt.Sprintf("%q is not a valid URL", s)}
	}
	return entity.Result{Valid: true}
}

// SanitizeURL trims s and prefixes https:// unless an http or https scheme is
// already present. SanitizeURL(SanitizeURL(x)) == SanitizeURL(x).
func SanitizeURL(s string) string {
	v := strings.TrimSpace(s)
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return v
	}
	return "https://" + v
}

func isHTTPURL(v string) bool {
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

func hasScheme(v string) bool {
	i := strings.Index(v, "://")
	return i > 0
}

// NumericInput parses raw as an integer in [min, max]. Empty input yields
// def and is valid; unparsable input yields def with ErrParse; out-of-range
// input yields the clamped value with ErrRange. Fractions are truncated.
func NumericInput(raw string, min, max, def int) entity.NumericResult {
	v := strings.TrimSpace(raw)
	if v == "" {
		return entity.NumericResult{Result: entity.Result{Valid: true}, Value: def}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return entity.NumericResult{
			Result: entity.Result{Error: fmt.Errorf("%w: %q", entity.ErrParse, raw).Error()},
			Value:  def,
		}
	}
	// compare as float: huge input would overflow int before clamping
	f = math.Trunc(f)
	if f < float64(min) || f > float64(max) {
		clamped := min
		if f > float64(max) {
			clamped = max
		}
		return entity.NumericResult{
			Result: entity.Result{Error: fmt.Errorf("%w: %s is outside %d-%d", entity.ErrRange, v, min, max).Error()},
			Value:  clamped,
		}
	}
	return entity.NumericResult{Result: entity.Result{Valid: true}, Value: int(f)}
}
