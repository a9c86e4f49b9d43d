package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"atrium/internal/models"
	"atrium/internal/services"
	"atrium/internal/utils/logger"
)

var smtpLog = logger.New("smtp_handler")

type SMTPHandler struct {
	dispatcher   *services.Dispatcher
	probeTimeout time.Duration
}

// SMTPTestRequest carries relay settings straight from the admin form so
// credentials can be verified before they are saved.
type SMTPTestRequest struct {
	Host       string `json:"host" validate:"required"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Encryption string `json:"encryption" validate:"omitempty,oneof=tls ssl none"`
	FromEmail  string `json:"from_email" validate:"required,email"`
	FromName   string `json:"from_name"`
}

type SMTPTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	LogID   string `json:"logId,omitempty"`
}

func NewSMTPHandler(dispatcher *services.Dispatcher, probeTimeout time.Duration) *SMTPHandler {
	return &SMTPHandler{dispatcher: dispatcher, probeTimeout: probeTimeout}
}

// TestConnection sends one synthetic message through the supplied settings to
// the settings' own from address. A failed test still returns 200 with the
// captured error and the audit log id.
func (h *SMTPHandler) TestConnection(c echo.Context) error {
	var req SMTPTestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	settings := &models.SMTPSettings{
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		Encryption: models.EncryptionMode(req.Encryption),
		FromEmail:  req.FromEmail,
		FromName:   req.FromName,
		Enabled:    true,
	}
	if settings.Port == 0 {
		settings.Port = 587
	}
	if settings.Encryption == "" {
		settings.Encryption = models.EncryptionTLS
	}

	result := h.dispatcher.Dispatch(c.Request().Context(), services.DispatchRequest{
		Settings:  settings,
		To:        settings.FromEmail,
		ToName:    settings.FromName,
		Subject:   "SMTP Test Successful",
		HTMLBody:  "<p>Your SMTP settings are working. This test message was sent by the site backend.</p>",
		TextBody:  "Your SMTP settings are working. This test message was sent by the site backend.",
		EmailType: models.EmailTypeTest,
		Timeout:   h.probeTimeout,
	})

	if !result.Sent {
		smtpLog.Warn("SMTP test against %s failed: %s", req.Host, result.Err)
		return c.JSON(http.StatusOK, SMTPTestResponse{
			Success: false,
			Error:   result.Err,
			LogID:   result.LogID,
		})
	}

	smtpLog.Success("SMTP test against %s succeeded", req.Host)
	return c.JSON(http.StatusOK, SMTPTestResponse{
		Success: true,
		Message: "SMTP connection test successful",
		LogID:   result.LogID,
	})
}
