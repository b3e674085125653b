package handlers

import (
	"net/http"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/review"
	"github.com/brushline/quotedesk/internal/services"
	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	svc services.QuoteService
}

func NewQuoteHandler(svc services.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// PatchQuoteRequest carries the version the edit was made against plus
// the base-input fields to change.
type PatchQuoteRequest struct {
	Version int `json:"version"`
	review.Patch
}

type VersionRequest struct {
	Version int `json:"version"`
}

type ApproveResponse struct {
	Quote      *models.Quote       `json:"quote"`
	ClientView *models.ClientQuote `json:"client_view"`
}

func (h *QuoteHandler) List(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), p.CompanyID, models.QuoteStatus(c.Query("status")), queryInt(c, "limit", 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": rows})
}

func (h *QuoteHandler) Get(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	v, err := h.svc.Get(c.Request.Context(), p.CompanyID, c.Param("quote_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *QuoteHandler) Patch(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req PatchQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "QuoteHandler.Patch", err)
		return
	}

	v, err := h.svc.Edit(c.Request.Context(), p.CompanyID, c.Param("quote_id"), req.Version, req.Patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *QuoteHandler) Approve(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "QuoteHandler.Approve", err)
		return
	}

	q, view, err := h.svc.Approve(c.Request.Context(), p.CompanyID, c.Param("quote_id"), req.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ApproveResponse{Quote: q, ClientView: view})
}

func (h *QuoteHandler) Revise(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "QuoteHandler.Revise", err)
		return
	}

	v, err := h.svc.Revise(c.Request.Context(), p.CompanyID, c.Param("quote_id"), req.Version)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *QuoteHandler) Client(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	view, err := h.svc.ClientView(c.Request.Context(), p.CompanyID, c.Param("quote_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Public serves an approved client view without authentication.
func (h *QuoteHandler) Public(c *gin.Context) {
	view, err := h.svc.PublicView(c.Request.Context(), c.Param("quote_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *QuoteHandler) Calculate(c *gin.Context) {
	if _, ok := requirePrincipal(c); !ok {
		return
	}

	var rec models.ProjectRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badBody(c, "QuoteHandler.Calculate", err)
		return
	}
	out, err := h.svc.Calculate(rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
