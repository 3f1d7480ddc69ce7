package contrast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeLuminance(t *testing.T) {
	tests := []struct {
		hex  string
		want float64
	}{
		{"#000000", 0},
		{"#ffffff", 1},
		{"#fff", 1},
		{"#ff0000", 0.2126},
		{"#00ff00", 0.7152},
		{"#0000ff", 0.0722},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := RelativeLuminance(tt.hex)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestRelativeLuminanceRejectsBadHex(t *testing.T) {
	_, err := RelativeLuminance("#12345")
	assert.Error(t, err)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"black on white", "#000000", "#FFFFFF", 21.0},
		{"default theme", "#1e293b", "#ffffff", 14.628718079350337},
		{"mid gray", "#777777", "#ffffff", 4.478089453577214},
		{"red on green", "#ff0000", "#00ff00", 2.9139375476009137},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Ratio(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)

			swapped, err := Ratio(tt.b, tt.a)
			require.NoError(t, err)
			assert.Equal(t, got, swapped)
		})
	}
}

func TestRatioSameColorIsOne(t *testing.T) {
	for _, c := range []string{"#000000", "#1e293b", "#abc", "#ffffff"} {
		got, err := Ratio(c, c)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got, c)
	}
}

func TestRatioDeterministic(t *testing.T) {
	first, err := Ratio("#1e293b", "#ffffff")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _ := Ratio("#1e293b", "#ffffff")
		assert.Equal(t, first, again)
	}
}

func TestCheck(t *testing.T) {
	t.Run("max contrast", func(t *testing.T) {
		r := Check("#000000", "#ffffff")
		assert.True(t, r.Valid)
		assert.True(t, r.Scannable)
		assert.InDelta(t, 21.0, r.ContrastRatio, 1e-9)
		assert.Empty(t, r.Warning)
	})

	t.Run("identical colors warn", func(t *testing.T) {
		r := Check("#000000", "#000000")
		assert.True(t, r.Valid)
		assert.False(t, r.Scannable)
		assert.Equal(t, 1.0, r.ContrastRatio)
		assert.NotEmpty(t, r.Warning)
	})

	t.Run("scannable below text AA", func(t *testing.T) {
		r := Check("#777777", "#ffffff")
		assert.True(t, r.Scannable)
		assert.Less(t, r.ContrastRatio, WCAGTextAA)
	})

	t.Run("just under threshold", func(t *testing.T) {
		r := Check("#999999", "#ffffff")
		assert.False(t, r.Scannable)
	})

	t.Run("invalid color fails fast", func(t *testing.T) {
		r := Check("#zzz", "#ffffff")
		assert.False(t, r.Valid)
		assert.Contains(t, r.Error, "Foreground")
		assert.Zero(t, r.ContrastRatio)

		r = Check("#000", "white")
		assert.False(t, r.Valid)
		assert.Contains(t, r.Error, "Background")
	})
}
