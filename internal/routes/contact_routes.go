package routes

import (
	"time"

	"github.com/labstack/echo/v4"

	"atrium/internal/api/middleware"
	"atrium/internal/config"
	"atrium/internal/handlers"
	"atrium/internal/services"
	"atrium/internal/utils"
)

func SetupContactRoutes(e *echo.Echo, mailer *services.Mailer, dispatcher *services.Dispatcher, cfg *config.Config, rdb *utils.RedisClient) {
	contactHandler := handlers.NewContactHandler(mailer)
	smtpHandler := handlers.NewSMTPHandler(dispatcher, cfg.Mailer.ProbeTimeout)

	// Contact routes group
	contact := e.Group("/api/v1/contact")

	limiter := middleware.RateLimiter(middleware.RateLimitConfig{
		Redis:  rdb,
		Limit:  cfg.Mailer.ContactRatePerHour,
		Window: time.Hour,
	})

	// Register routes
	contact.POST("", contactHandler.Submit, limiter)
	contact.POST("/test", smtpHandler.TestConnection)
}
