package routes

import (
	"github.com/labstack/echo/v4"

	"atrium/internal/handlers"
	"atrium/internal/services"
)

func SetupAuthRoutes(e *echo.Echo, auth *services.AuthService) {
	authHandler := handlers.NewAuthHandler(auth)

	// Single action-discriminated endpoint
	e.POST("/api/v1/auth", authHandler.Handle)
}
