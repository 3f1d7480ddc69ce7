// Package toast renders notification toasts for HTMX swaps.
package toast

import (
	"context"
	"fmt"
	"io"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

type Position string

const (
	PositionTopRight     Position = "top-right"
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
)

type Props struct {
	ID            string
	Class         string
	Title         string
	Description   string
	Variant       Variant
	Position      Position
	Duration      int // milliseconds, 0 keeps the toast until dismissed
	Dismissible   bool
	ShowIndicator bool
	Icon          bool
}

// ParseVariant maps form values onto a variant; anything unknown is success.
func ParseVariant(s string) Variant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "destructive":
		return VariantError
	case "warning":
		return VariantWarning
	case "info":
		return VariantInfo
	default:
		return VariantSuccess
	}
}

var variantClasses = map[Variant]string{
	VariantDefault: "border-slate-200 bg-white text-slate-900",
	VariantSuccess: "border-emerald-200 bg-emerald-50 text-emerald-900",
	VariantError:   "border-red-200 bg-red-50 text-red-900",
	VariantWarning: "border-amber-200 bg-amber-50 text-amber-900",
	VariantInfo:    "border-sky-200 bg-sky-50 text-sky-900",
}

var positionClasses = map[Position]string{
	PositionTopRight:     "top-4 right-4",
	PositionTopLeft:      "top-4 left-4",
	PositionTopCenter:    "top-4 left-1/2 -translate-x-1/2",
	PositionBottomRight:  "bottom-4 right-4",
	PositionBottomLeft:   "bottom-4 left-4",
	PositionBottomCenter: "bottom-4 left-1/2 -translate-x-1/2",
}

var icons = map[Variant]string{
	VariantSuccess: "✓",
	VariantError:   "✕",
	VariantWarning: "!",
	VariantInfo:    "i",
}

func Toast(p Props) templ.Component {
	if p.Variant == "" {
		p.Variant = VariantDefault
	}
	if p.Position == "" {
		p.Position = PositionBottomRight
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := twmerge.Merge(
			"fixed z-50 flex w-80 items-start gap-3 rounded-lg border p-4 shadow-lg",
			positionClasses[p.Position],
			variantClasses[p.Variant],
			p.Class,
		)

		var b strings.Builder
		b.WriteString(`<div role="status" aria-live="polite"`)
		if p.ID != "" {
			fmt.Fprintf(&b, ` id="%s"`, templ.EscapeString(p.ID))
		}
		fmt.Fprintf(&b, ` class="%s" data-toast data-variant="%s" data-duration="%d">`,
			templ.EscapeString(class), templ.EscapeString(string(p.Variant)), p.Duration)

		if p.Icon {
			if icon, ok := icons[p.Variant]; ok {
				fmt.Fprintf(&b, `<span class="mt-0.5 font-bold" aria-hidden="true">%s</span>`, icon)
			}
		}
		b.WriteString(`<div class="flex-1">`)
		if p.Title != "" {
			fmt.Fprintf(&b, `<p class="text-sm font-semibold">%s</p>`, templ.EscapeString(p.Title))
		}
		if p.Description != "" {
			fmt.Fprintf(&b, `<p class="text-sm opacity-90">%s</p>`, templ.EscapeString(p.Description))
		}
		b.WriteString(`</div>`)
		if p.Dismissible {
			b.WriteString(`<button type="button" class="opacity-60 hover:opacity-100" aria-label="Close" data-toast-dismiss>&times;</button>`)
		}
		if p.ShowIndicator && p.Duration > 0 {
			fmt.Fprintf(&b, `<div class="absolute bottom-0 left-0 h-1 w-full bg-current opacity-20" data-toast-indicator style="animation-duration:%dms"></div>`, p.Duration)
		}
		b.WriteString(`</div>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
