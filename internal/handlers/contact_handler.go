package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"atrium/internal/services"
	"atrium/internal/utils/logger"
)

var contactLog = logger.New("contact_handler")

type ContactHandler struct {
	mailer *services.Mailer
}

func NewContactHandler(mailer *services.Mailer) *ContactHandler {
	return &ContactHandler{mailer: mailer}
}

type ContactResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	SubmissionID     string `json:"submission_id"`
	EmailsSent       bool   `json:"emails_sent"`
	NotificationSent bool   `json:"notification_sent"`
	AutoResponseSent bool   `json:"auto_response_sent"`
}

// Submit accepts a visitor's contact form post. Success means the submission
// was stored; email delivery outcomes ride along as booleans and never fail
// the request.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req services.ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.mailer.ProcessSubmission(c.Request().Context(), &req, c.RealIP())
	if err != nil {
		contactLog.Error("failed to process submission", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to store your message, please try again",
		})
	}

	return c.JSON(http.StatusOK, ContactResponse{
		Success:          true,
		Message:          "Your message has been received",
		SubmissionID:     result.SubmissionID,
		EmailsSent:       result.EmailsSent,
		NotificationSent: result.NotificationSent,
		AutoResponseSent: result.AutoResponseSent,
	})
}
