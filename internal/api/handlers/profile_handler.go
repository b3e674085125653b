package handlers

import (
	"net/http"

	"github.com/brushline/quotedesk/internal/services"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc services.LearningService
}

func NewProfileHandler(svc services.LearningService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Learning(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	prof, err := h.svc.Profile(c.Request.Context(), p.CompanyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prof)
}

// Signals lists recent learning jobs, newest first.
func (h *ProfileHandler) Signals(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	rows, err := h.svc.Signals(c.Request.Context(), p.CompanyID, int64(queryInt(c, "limit", 20)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": rows})
}
