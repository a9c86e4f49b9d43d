package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"atrium/internal/config"
	"atrium/internal/routes"
	"atrium/internal/services"
	"atrium/internal/utils"
	"atrium/internal/utils/logger"
)

var log = logger.New("api")

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB

	mailer     *services.Mailer
	dispatcher *services.Dispatcher
	auth       *services.AuthService
	redis      *utils.RedisClient
}

// CustomValidator adapts go-playground/validator to echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	mailer *services.Mailer,
	dispatcher *services.Dispatcher,
	auth *services.AuthService,
	rdb *utils.RedisClient,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		echo:       e,
		config:     cfg,
		db:         db,
		mailer:     mailer,
		dispatcher: dispatcher,
		auth:       auth,
		redis:      rdb,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	routes.SetupContactRoutes(s.echo, s.mailer, s.dispatcher, s.config, s.redis)
	routes.SetupAuthRoutes(s.echo, s.auth)
}

func (s *Server) healthCheck(c echo.Context) error {
	status := map[string]string{"status": "ok"}

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
	}
	if s.redis != nil {
		if err := s.redis.HealthCheck(c.Request().Context()); err != nil {
			status["redis"] = "unreachable"
		}
	}

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	log.Info("listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router, used by tests to drive requests
// through the full middleware chain.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
