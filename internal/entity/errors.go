package entity

import (
	"errors"
	"fmt"
)

var (
	// Input errors
	ErrFormat = errors.New("invalid format")
	ErrRange  = errors.New("value out of range")
	ErrParse  = errors.New("not a number")

	// Logo errors
	ErrFileValidation = errors.New("file rejected")
	ErrTooSmall       = fmt.Errorf("%w: image too small", ErrFileValidation)
	ErrTooLarge       = fmt.Errorf("%w: image too large", ErrFileValidation)
	ErrImageDecode    = errors.New("image could not be decoded")

	// Pipeline errors
	ErrEncode = errors.New("qr encoding failed")
	ErrExport = errors.New("export failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrNoQR            = errors.New("no qr code rendered yet")
)
