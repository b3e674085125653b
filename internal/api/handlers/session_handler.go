package handlers

import (
	"net/http"
	"strconv"

	"github.com/brushline/quotedesk/internal/services"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	res, err := h.svc.Start(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *SessionHandler) Get(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), p.CompanyID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) Messages(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	rows, err := h.svc.Messages(c.Request.Context(), p.CompanyID, c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": rows})
}

func (h *SessionHandler) Send(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "SessionHandler.Send", err)
		return
	}

	res, err := h.svc.Send(c.Request.Context(), p, c.Param("session_id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Extract drafts the quote. ?force=true skips the readiness check.
func (h *SessionHandler) Extract(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.Query("force"))

	res, err := h.svc.Extract(c.Request.Context(), p, c.Param("session_id"), force)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
