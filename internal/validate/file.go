package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/cristianadrielbraun/custqr/internal/entity"
)

const maxFileNameLength = 255

// AllowedTypes maps every accepted logo extension to its MIME type.
var AllowedTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// AllowedMIME reports whether t (parameters ignored) is on the logo allow-list.
func AllowedMIME(t string) bool {
	t = normalizeMIME(t)
	for _, m := range AllowedTypes {
		if m == t {
			return true
		}
	}
	return false
}

var (
	reservedNameRe = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[1-9]|lpt[1-9])(\..*)?$`)
	executableRe   = regexp.MustCompile(`(?i)\.(exe|bat|cmd|scr|pif|msi|dll|js|jse|vbs|vbe|ps1|sh|jar|app|apk|php|cgi)(\.|$)`)
)

// FileLimits bounds the byte size of an upload.
type FileLimits struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
	MinBytes int64 `mapstructure:"min_bytes"`
}

// FileUpload checks name, declared type and size of an upload. Every failure
// wraps entity.ErrFileValidation.
func FileUpload(f entity.FileMeta, limits FileLimits) error {
	if err := FileName(f.Name); err != nil {
		return err
	}
	if limits.MaxBytes > 0 && f.Size > limits.MaxBytes {
		return fmt.Errorf("%w: file is %s, maximum is %s", entity.ErrFileValidation, humanBytes(f.Size), humanBytes(limits.MaxBytes))
	}
	if f.Size < limits.MinBytes || f.Size <= 0 {
		return fmt.Errorf("%w: file is %s, it looks empty or corrupt", entity.ErrFileValidation, humanBytes(f.Size))
	}
	if !AllowedMIME(f.MIMEType) {
		return fmt.Errorf("%w: type %q is not an allowed image type", entity.ErrFileValidation, f.MIMEType)
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if _, ok := AllowedTypes[ext]; !ok {
		return fmt.Errorf("%w: extension %q is not an allowed image type", entity.ErrFileValidation, ext)
	}
	return nil
}

// FileName rejects overlong names, control characters, path separators,
// reserved device names and executable extensions anywhere in the name.
func FileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: file name is empty", entity.ErrFileValidation)
	case len(name) > maxFileNameLength:
		return fmt.Errorf("%w: file name is longer than %d characters", entity.ErrFileValidation, maxFileNameLength)
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return fmt.Errorf("%w: file name contains a path", entity.ErrFileValidation)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: file name contains control characters", entity.ErrFileValidation)
	case reservedNameRe.MatchString(name):
		return fmt.Errorf("%w: %q is a reserved device name", entity.ErrFileValidation, name)
	case executableRe.MatchString(name):
		return fmt.Errorf("%w: %q looks like an executable", entity.ErrFileValidation, name)
	}
	return nil
}

func normalizeMIME(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d bytes", n)
}
