package validate

import (
	"strings"
	"testing"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestFileUpload(t *testing.T) {
	limits := FileLimits{MaxBytes: 5 << 20, MinBytes: 100}

	tests := []struct {
		name string
		file entity.FileMeta
		ok   bool
	}{
		{"png", entity.FileMeta{Name: "logo.png", Size: 2048, MIMEType: "image/png"}, true},
		{"jpeg with params", entity.FileMeta{Name: "logo.JPG", Size: 2048, MIMEType: "image/jpeg; charset=binary"}, true},
		{"svg", entity.FileMeta{Name: "logo.svg", Size: 2048, MIMEType: "image/svg+xml"}, true},
		{"too big", entity.FileMeta{Name: "logo.png", Size: 6 << 20, MIMEType: "image/png"}, false},
		{"too small", entity.FileMeta{Name: "logo.png", Size: 99, MIMEType: "image/png"}, false},
		{"empty", entity.FileMeta{Name: "logo.png", Size: 0, MIMEType: "image/png"}, false},
		{"wrong mime", entity.FileMeta{Name: "logo.png", Size: 2048, MIMEType: "application/pdf"}, false},
		{"exe with image mime", entity.FileMeta{Name: "logo.exe", Size: 2048, MIMEType: "image/png"}, false},
		{"double extension", entity.FileMeta{Name: "logo.exe.png", Size: 2048, MIMEType: "image/png"}, false},
		{"unknown extension", entity.FileMeta{Name: "logo.tiff", Size: 2048, MIMEType: "image/png"}, false},
		{"reserved name", entity.FileMeta{Name: "CON.png", Size: 2048, MIMEType: "image/png"}, false},
		{"control char", entity.FileMeta{Name: "lo\x00go.png", Size: 2048, MIMEType: "image/png"}, false},
		{"path traversal", entity.FileMeta{Name: "../logo.png", Size: 2048, MIMEType: "image/png"}, false},
		{"long name", entity.FileMeta{Name: strings.Repeat("a", 252) + ".png", Size: 2048, MIMEType: "image/png"}, false},
		{"dotted domain name", entity.FileMeta{Name: "example.com.png", Size: 2048, MIMEType: "image/png"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FileUpload(tt.file, limits)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, entity.ErrFileValidation)
		})
	}
}

func TestFileUploadBaselineLimits(t *testing.T) {
	limits := FileLimits{MaxBytes: 2 << 20}

	assert.NoError(t, FileUpload(entity.FileMeta{Name: "a.gif", Size: 10, MIMEType: "image/gif"}, limits))
	assert.Error(t, FileUpload(entity.FileMeta{Name: "a.gif", Size: 3 << 20, MIMEType: "image/gif"}, limits))
}
