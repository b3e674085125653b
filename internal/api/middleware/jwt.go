package middleware

import (
	"net/http"
	"strings"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/gin-gonic/gin"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// PrincipalKey is the gin context key holding the authenticated models.Principal.
const PrincipalKey = "principal"

// JWTAuth accepts access tokens issued by the access-code login. Browsers
// cannot set headers on websocket upgrades, so ?access_token= is accepted too.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "JWT_SECRET is not set",
			})
			return
		}

		raw := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		} else if q := c.Query("access_token"); q != "" {
			raw = q
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		p, err := utils.ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token",
			})
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// SetPrincipal stores the caller on the context the way JWTAuth does.
func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(PrincipalKey, p)
	c.Set("user_id", p.Subject)
	c.Set("company_id", p.CompanyID)
	c.Set("role", string(p.Role))
}
