package handlers

import (
	"net/http"

	"github.com/brushline/quotedesk/internal/services"
	"github.com/gin-gonic/gin"
)

// ProductHandler serves the company rate catalog.
type ProductHandler struct {
	svc services.CatalogService
}

func NewProductHandler(svc services.CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), p.CompanyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": rows})
}

func (h *ProductHandler) Create(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, "ProductHandler.Create", err)
		return
	}
	row, err := h.svc.Create(c.Request.Context(), p.CompanyID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *ProductHandler) Update(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, "ProductHandler.Update", err)
		return
	}
	row, err := h.svc.Update(c.Request.Context(), p.CompanyID, c.Param("product_id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), p.CompanyID, c.Param("product_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
