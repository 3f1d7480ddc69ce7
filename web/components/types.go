package components

import "github.com/cristianadrielbraun/custqr/internal/entity"

// PageData prefills the customization form on the home page.
type PageData struct {
	Defaults     entity.Options
	Width        entity.Bounds
	Margin       entity.Bounds
	MaxLogoBytes int64
	AcceptLogo   string
	// ExampleURL is the placeholder shown in the empty URL field.
	ExampleURL string
}
