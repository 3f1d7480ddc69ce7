package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/session"
	"github.com/gin-gonic/gin"
)

// flexString accepts a JSON string or number, since number inputs arrive as
// either depending on the client.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: expected a string or number", entity.ErrFormat)
	}
	*f = flexString(n.String())
	return nil
}

// optionsPatch carries raw field values; absent fields are left alone.
type optionsPatch struct {
	URL    *flexString `json:"url"`
	Width  *flexString `json:"width"`
	Margin *flexString `json:"margin"`
	Level  *flexString `json:"level"`
	Dark   *flexString `json:"dark"`
	Light  *flexString `json:"light"`
}

type optionsResponse struct {
	URL    *entity.Result        `json:"url,omitempty"`
	Width  *entity.NumericResult `json:"width,omitempty"`
	Margin *entity.NumericResult `json:"margin,omitempty"`
	Level  *entity.Result        `json:"level,omitempty"`
	Colors *entity.ColorResult   `json:"colors,omitempty"`
	State  session.State         `json:"state"`
}

func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"id": s.ID, "state": s.State()})
}

func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State())
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateOptions applies a partial update. Invalid field values are reported
// per field with a 200; only a malformed body or a pipeline failure is an
// error response.
func (h *Handler) UpdateOptions(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var p optionsPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrFormat, err))
		return
	}

	var out optionsResponse
	if p.Width != nil {
		r := s.SetWidth(string(*p.Width))
		out.Width = &r
	}
	if p.Margin != nil {
		r := s.SetMargin(string(*p.Margin))
		out.Margin = &r
	}
	if p.Level != nil {
		r := entity.Result{Valid: true}
		if err := s.SetLevel(string(*p.Level)); err != nil {
			r = entity.Result{Error: err.Error()}
		}
		out.Level = &r
	}
	if p.Dark != nil || p.Light != nil {
		cr, err := s.SetColors((*string)(p.Dark), (*string)(p.Light))
		if err != nil && !errors.Is(err, entity.ErrFormat) {
			h.fail(c, err)
			return
		}
		if err != nil {
			cr.Valid = false
			cr.Error = err.Error()
		}
		out.Colors = &cr
	}
	// last, so a URL render scheduled here sees every other field
	if p.URL != nil {
		r := s.SetURL(string(*p.URL))
		out.URL = &r
	}

	out.State = s.State()
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Preview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, version, err := s.Preview()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-Preview-Version", strconv.FormatUint(version, 10))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

func (h *Handler) UploadLogo(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("logo")
	if err != nil {
		h.fail(c, fmt.Errorf("%w: multipart field \"logo\" is required", entity.ErrFileValidation))
		return
	}

	maxBytes := h.logos.Limits().File.MaxBytes
	if maxBytes > 0 && fh.Size > maxBytes {
		h.failWithStatus(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: %q is %d bytes, maximum is %d", entity.ErrFileValidation, fh.Filename, fh.Size, maxBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrFileValidation, err))
		return
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrFileValidation, err))
		return
	}

	meta := entity.FileMeta{Name: fh.Filename, Size: fh.Size, MIMEType: fh.Header.Get("Content-Type")}
	asset, err := s.UploadLogo(c.Request.Context(), meta, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo": asset, "state": s.State()})
}

func (h *Handler) RemoveLogo(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.RemoveLogo()
	c.JSON(http.StatusOK, s.State())
}

func (h *Handler) Export(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	art, err := s.Export(c.Request.Context(), format)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	writeArtifact(c, art, true)
}
