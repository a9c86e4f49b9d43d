package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/config"
	"atrium/internal/models"
	"atrium/internal/services"
)

func newContactHandler(store *memStore, sender *stubSender) *ContactHandler {
	dispatcher := services.NewDispatcher(store, sender)
	mailer := services.NewMailer(store, dispatcher, config.MailerConfig{
		SendTimeout:  5 * time.Second,
		ProbeTimeout: 5 * time.Second,
	})
	return NewContactHandler(mailer)
}

func postJSON(e *echo.Echo, target, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestContactSubmitSuccess(t *testing.T) {
	store := newMemStore()
	store.settings = &models.SMTPSettings{
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "noreply@example.com",
		Enabled:   true,
	}
	store.templates[models.TemplateTypeContactNotification] = &models.EmailTemplate{
		TemplateType: models.TemplateTypeContactNotification,
		Subject:      "New contact from {{name}}",
		HTMLBody:     "<p>{{message}}</p>",
		Enabled:      true,
	}
	store.recipients = []models.EmailRecipient{{Email: "owner@example.com", Enabled: true}}
	sender := &stubSender{}
	h := newContactHandler(store, sender)

	e := newTestEcho()
	rec, c := postJSON(e, "/api/v1/contact", `{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"message": "Hello there"
	}`)

	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.EmailsSent)
	assert.True(t, resp.NotificationSent)
	assert.False(t, resp.AutoResponseSent)
	assert.NotEmpty(t, resp.SubmissionID)
	assert.Equal(t, []string{"owner@example.com"}, sender.sentTo())
}

func TestContactSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email": "ada@example.com", "message": "hi"}`},
		{"missing email", `{"name": "Ada", "message": "hi"}`},
		{"invalid email", `{"name": "Ada", "email": "not-an-email", "message": "hi"}`},
		{"missing message", `{"name": "Ada", "email": "ada@example.com"}`},
		{"malformed json", `{"name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			sender := &stubSender{}
			h := newContactHandler(store, sender)

			e := newTestEcho()
			rec, c := postJSON(e, "/api/v1/contact", tt.body)

			require.NoError(t, h.Submit(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			// A rejected payload must leave no trace.
			assert.Zero(t, store.submissionCount())
			assert.Empty(t, sender.sentTo())
		})
	}
}

func TestContactSubmitStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failCreateSubmission = assert.AnError
	sender := &stubSender{}
	h := newContactHandler(store, sender)

	e := newTestEcho()
	rec, c := postJSON(e, "/api/v1/contact", `{
		"name": "Ada",
		"email": "ada@example.com",
		"message": "hi"
	}`)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, sender.sentTo())
}

func TestContactSubmitDegradedWithoutSMTP(t *testing.T) {
	store := newMemStore()
	sender := &stubSender{}
	h := newContactHandler(store, sender)

	e := newTestEcho()
	rec, c := postJSON(e, "/api/v1/contact", `{
		"name": "Ada",
		"email": "ada@example.com",
		"message": "hi"
	}`)

	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success, "capturing the submission is the success criterion")
	assert.False(t, resp.EmailsSent)
	assert.Equal(t, 1, store.submissionCount())
}
