package entity

import "image"

// FileMeta describes an upload before its bytes are trusted.
type FileMeta struct {
	Name     string `json:"fileName"`
	Size     int64  `json:"sizeBytes"`
	MIMEType string `json:"contentType"`
}

// LogoAsset is a validated, bounded and re-encoded logo. It is replaced
// wholesale on a new upload and dropped on removal.
type LogoAsset struct {
	Image        image.Image `json:"-"`
	Data         []byte      `json:"-"`
	DataURL      string      `json:"-"`
	MIMEType     string      `json:"mimeType"`
	OriginalName string      `json:"originalFileName"`
	OriginalSize int64       `json:"originalSize"`
	ByteSize     int         `json:"byteSize"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
}
