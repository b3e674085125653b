package handlers

import (
	"net/http"
	"time"

	"github.com/brushline/quotedesk/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type AccessCodeRequest struct {
	CompanySlug string `json:"company_slug" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

type AccessCodeResponse struct {
	Token       string `json:"token"`
	ExpiresAt   string `json:"expires_at"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
}

func (h *AuthHandler) AccessCode(c *gin.Context) {
	var req AccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "AuthHandler.AccessCode", err)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.CompanySlug, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AccessCodeResponse{
		Token:       res.Token,
		ExpiresAt:   res.ExpiresAt.Format(time.RFC3339),
		CompanyID:   res.Principal.CompanyID,
		CompanyName: res.Company.Name,
		Role:        string(res.Principal.Role),
	})
}
