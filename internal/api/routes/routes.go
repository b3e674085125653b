package routes

import (
	"net/http"
	"time"

	"github.com/brushline/quotedesk/internal/api/handlers"
	"github.com/brushline/quotedesk/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Auth    *handlers.AuthHandler
	Product *handlers.ProductHandler
	Session *handlers.SessionHandler
	Quote   *handlers.QuoteHandler
	Profile *handlers.ProfileHandler
	WS      *handlers.WSHandler

	JWTSecret      string
	RequestTimeout time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	timeout := middleware.RequestTimeout(d.RequestTimeout)

	r.POST("/auth/access-code", timeout, d.Auth.AccessCode)
	r.GET("/public/quotes/:quote_id", timeout, d.Quote.Public)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWTSecret))

	// the websocket outlives any request timeout
	auth.GET("/ws/sessions/:session_id", d.WS.SessionWS)

	api := auth.Group("/")
	api.Use(timeout)

	api.GET("/products", d.Product.List)
	admin := api.Group("/")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/products", d.Product.Create)
	admin.PUT("/products/:product_id", d.Product.Update)
	admin.DELETE("/products/:product_id", d.Product.Delete)

	api.POST("/sessions", d.Session.Start)
	api.GET("/sessions/:session_id", d.Session.Get)
	api.GET("/sessions/:session_id/messages", d.Session.Messages)
	api.POST("/sessions/:session_id/messages", d.Session.Send)
	api.POST("/sessions/:session_id/extract", d.Session.Extract)

	api.GET("/quotes", d.Quote.List)
	api.POST("/quotes/calculate", d.Quote.Calculate)
	api.GET("/quotes/:quote_id", d.Quote.Get)
	api.PATCH("/quotes/:quote_id", d.Quote.Patch)
	api.POST("/quotes/:quote_id/approve", d.Quote.Approve)
	api.POST("/quotes/:quote_id/revise", d.Quote.Revise)
	api.GET("/quotes/:quote_id/client", d.Quote.Client)

	api.GET("/profile/learning", d.Profile.Learning)
	api.GET("/profile/learning/signals", d.Profile.Signals)
}
