package handlers

import (
	"net/http"

	toast "github.com/cristianadrielbraun/custqr/web/components/ui/toast"
	"github.com/gin-gonic/gin"
)

// GenericToast renders a toast from form fields for HTMX swaps.
func (h *Handler) GenericToast(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	err := toast.Toast(toast.Props{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		Variant:       toast.ParseVariant(c.PostForm("variant")),
		Position:      toast.PositionBottomRight,
		Duration:      2000,
		Dismissible:   c.PostForm("dismissible") == "on",
		ShowIndicator: false,
		Icon:          true,
	}).Render(c.Request.Context(), c.Writer)
	if err != nil {
		h.log.WithError(err).Warn("render toast")
	}
}
