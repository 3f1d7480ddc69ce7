package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/contrast"
	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QRCodeHandler is the stateless one-shot export: every option comes from the
// query string and no logo is applied.
func (h *Handler) QRCodeHandler(c *gin.Context) {
	raw := c.Query("url")
	if res := validate.CheckURL(raw); !res.Valid {
		h.fail(c, fmt.Errorf("%w: %s", entity.ErrFormat, res.Error))
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	opts, err := h.queryOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	art, err := h.exporter.Export(c.Request.Context(), export.Request{
		URL:     validate.SanitizeURL(raw),
		Options: opts,
	}, format)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"format": format,
		"width":  opts.Width,
		"level":  opts.Level,
	}).Debug("one-shot export")

	c.Header("Cache-Control", "public, max-age=3600")
	writeArtifact(c, art, false)
}

// queryOptions reads width, margin, level, fg and bg over the defaults.
// Numeric fields take the validator's recovered value; level and colors
// must be well formed.
func (h *Handler) queryOptions(c *gin.Context) (entity.Options, error) {
	o := h.defaults
	if v, ok := c.GetQuery("width"); ok {
		o.Width = validate.NumericInput(v, entity.WidthBounds.Min, entity.WidthBounds.Max, h.defaults.Width).Value
	}
	if v, ok := c.GetQuery("margin"); ok {
		o.Margin = validate.NumericInput(v, entity.MarginBounds.Min, entity.MarginBounds.Max, h.defaults.Margin).Value
	}
	if v := c.Query("level"); v != "" {
		l, err := entity.ParseLevel(v)
		if err != nil {
			return o, err
		}
		o.Level = l
	}
	var err error
	if o.Color.Dark, err = colorParam(c.Query("fg"), o.Color.Dark); err != nil {
		return o, err
	}
	if o.Color.Light, err = colorParam(c.Query("bg"), o.Color.Light); err != nil {
		return o, err
	}
	return o, nil
}

// colorParam accepts hex with or without the leading '#', since '#' has to be
// escaped in a query string.
func colorParam(v, def string) (string, error) {
	v = withHash(v)
	if v == "" {
		return def, nil
	}
	if err := validate.HexColor(v); err != nil {
		return "", err
	}
	return v, nil
}

// Contrast reports the contrast ratio of a color pair. Invalid colors are a
// result, not a request error.
func (h *Handler) Contrast(c *gin.Context) {
	dark := withHash(c.Query("dark"))
	light := withHash(c.Query("light"))
	c.JSON(http.StatusOK, contrast.Check(dark, light))
}

func withHash(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	return v
}

func (h *Handler) ValidateURL(c *gin.Context) {
	raw := c.Query("url")
	res := validate.CheckURL(raw)
	out := gin.H{"isValid": res.Valid}
	if res.Valid {
		out["url"] = validate.SanitizeURL(raw)
	} else {
		out["error"] = res.Error
	}
	c.JSON(http.StatusOK, out)
}

// writeArtifact sends an export, as a download when attachment is set.
func writeArtifact(c *gin.Context, art *export.Artifact, attachment bool) {
	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	}
	if art.RasterFallback() {
		c.Header("X-Custqr-Raster-Fallback", "true")
	}
	c.Header("X-Custqr-Scan", art.Scan.String())
	c.Data(http.StatusOK, art.MIMEType, art.Data)
}
