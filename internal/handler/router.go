package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xactrix/xact-two/api/internal/logger"
)

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	CORSOrigins      []string
	SubmitsPerMinute int
}

// NewRouter wires the booking page, the JSON API and the health check.
func NewRouter(h *BookingHandler, log *logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(log), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("Failed to set trusted proxies", logger.Error(err))
	}
	r.SetHTMLTemplate(bookingTemplate)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/", h.ShowForm)
	limit := RateLimit(cfg.SubmitsPerMinute, log)
	r.POST("/book", limit, h.SubmitForm)
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.Use(CORS(cfg.CORSOrigins))
	{
		api.POST("/bookings", limit, h.CreateBooking)
		api.OPTIONS("/bookings", func(c *gin.Context) { c.AbortWithStatus(http.StatusNoContent) })
	}

	return r
}
