package toast

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, p Props) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Toast(p).Render(context.Background(), &buf))
	return buf.String()
}

func TestToastEscapesContent(t *testing.T) {
	out := render(t, Props{
		Title:       "Logo <rejected>",
		Description: `type "text/x-sh" is not allowed`,
		Variant:     VariantError,
		Duration:    2000,
		Icon:        true,
	})
	assert.Contains(t, out, "Logo &lt;rejected&gt;")
	assert.NotContains(t, out, "<rejected>")
	assert.Contains(t, out, `data-variant="error"`)
	assert.Contains(t, out, `data-duration="2000"`)
	assert.Contains(t, out, "bg-red-50")
	assert.Contains(t, out, "bottom-4 right-4")
	assert.NotContains(t, out, "data-toast-dismiss")
}

func TestToastOptionalParts(t *testing.T) {
	out := render(t, Props{Title: "Saved", Dismissible: true, ShowIndicator: true, Duration: 1500, Position: PositionTopCenter})
	assert.Contains(t, out, "data-toast-dismiss")
	assert.Contains(t, out, "data-toast-indicator")
	assert.Contains(t, out, "top-4")
	assert.Contains(t, out, `data-variant="default"`)
}

func TestToastClassOverride(t *testing.T) {
	out := render(t, Props{Title: "x", Class: "w-96"})
	assert.Contains(t, out, "w-96")
	assert.NotContains(t, out, "w-80")
}

func TestParseVariant(t *testing.T) {
	cases := map[string]Variant{
		"error":       VariantError,
		"destructive": VariantError,
		"Warning":     VariantWarning,
		"info":        VariantInfo,
		"success":     VariantSuccess,
		"":            VariantSuccess,
		"bogus":       VariantSuccess,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseVariant(in), in)
	}
}
