package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/brushline/quotedesk/internal/api/middleware"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
	Field   string     `json:"field,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
			Field:   ae.Field,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requirePrincipal(c *gin.Context) (models.Principal, bool) {
	if v, ok := c.Get(middleware.PrincipalKey); ok {
		if p, ok := v.(models.Principal); ok && p.CompanyID != "" {
			return p, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return models.Principal{}, false
}

func badBody(c *gin.Context, op string, err error) {
	writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
