package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/templates"
)

// TemplateHandler 列出可选模板。
type TemplateHandler struct {
	registry *templates.Registry
}

func NewTemplateHandler(registry *templates.Registry) *TemplateHandler {
	return &TemplateHandler{registry: registry}
}

// ListTemplates GET /v1/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.registry.Templates()})
}
