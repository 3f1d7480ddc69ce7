package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/session"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/cristianadrielbraun/custqr/web/components"
	toast "github.com/cristianadrielbraun/custqr/web/components/ui/toast"
	"github.com/cristianadrielbraun/custqr/web/pages"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler holds the dependencies shared by every HTTP endpoint.
type Handler struct {
	sessions *session.Store
	exporter *export.Exporter
	logos    *logo.Processor
	defaults entity.Options
	log      *logrus.Entry
}

type Deps struct {
	Sessions *session.Store
	Exporter *export.Exporter
	Logos    *logo.Processor
	Defaults entity.Options
	Log      *logrus.Entry
}

func New(d Deps) *Handler {
	return &Handler{
		sessions: d.Sessions,
		exporter: d.Exporter,
		logos:    d.Logos,
		defaults: d.Defaults,
		log:      d.Log,
	}
}

// Register mounts the page and every /api route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Home)

	api := r.Group("/api")
	{
		api.GET("/qr", h.QRCodeHandler)
		api.GET("/contrast", h.Contrast)
		api.GET("/validate/url", h.ValidateURL)
		api.POST("/htmx/toast", h.GenericToast)

		s := api.Group("/sessions")
		s.POST("", h.CreateSession)
		s.GET("/:id", h.GetSession)
		s.DELETE("/:id", h.DeleteSession)
		s.PATCH("/:id/options", h.UpdateOptions)
		s.GET("/:id/preview", h.Preview)
		s.POST("/:id/logo", h.UploadLogo)
		s.DELETE("/:id/logo", h.RemoveLogo)
		s.GET("/:id/export", h.Export)
	}
}

func (h *Handler) Home(c *gin.Context) {
	data := components.PageData{
		Defaults:     h.defaults,
		Width:        entity.WidthBounds,
		Margin:       entity.MarginBounds,
		MaxLogoBytes: h.logos.Limits().File.MaxBytes,
		AcceptLogo:   acceptList(),
		ExampleURL:   "example.com",
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pages.HomePage(data).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.WithError(err).Error("render home page")
	}
}

func acceptList() string {
	seen := make(map[string]bool)
	var out []string
	for ext, mime := range validate.AllowedTypes {
		for _, v := range []string{ext, mime} {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrNoQR):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrFormat),
		errors.Is(err, entity.ErrRange),
		errors.Is(err, entity.ErrParse),
		errors.Is(err, entity.ErrFileValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrImageDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status.
func (h *Handler) fail(c *gin.Context, err error) {
	h.failWithStatus(c, statusFor(err), err)
}

// failWithStatus answers with a toast for HTMX callers and JSON otherwise.
// Internal errors are logged but never echoed in detail.
func (h *Handler) failWithStatus(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		msg = http.StatusText(status)
	}

	if c.GetHeader("HX-Request") == "true" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(status)
		_ = toast.Toast(toast.Props{
			Title:       titleFor(status),
			Description: msg,
			Variant:     toast.VariantError,
			Position:    toast.PositionBottomRight,
			Duration:    4000,
			Dismissible: true,
			Icon:        true,
		}).Render(c.Request.Context(), c.Writer)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func titleFor(status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "File too large"
	case http.StatusUnprocessableEntity:
		return "Unreadable image"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusInternalServerError:
		return "Something went wrong"
	default:
		return "Invalid input"
	}
}
