package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"atrium/internal/models"
	"atrium/internal/utils"
)

// newTestEcho builds an echo instance with the same validator adapter the
// server wires in, so Bind/Validate behave as they do in production.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &structValidator{validator: validator.New()}
	return e
}

type structValidator struct {
	validator *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// memStore is an in-memory persistence fake shared by the handler tests.
type memStore struct {
	mu sync.Mutex

	submissions []*models.ContactSubmission
	settings    *models.SMTPSettings
	templates   map[models.TemplateType]*models.EmailTemplate
	recipients  []models.EmailRecipient
	logs        map[string]*models.EmailLog

	failCreateSubmission error
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[models.TemplateType]*models.EmailTemplate),
		logs:      make(map[string]*models.EmailLog),
	}
}

func (m *memStore) CreateSubmission(ctx context.Context, submission *models.ContactSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateSubmission != nil {
		return m.failCreateSubmission
	}
	submission.ID = fmt.Sprintf("sub-%d", len(m.submissions)+1)
	m.submissions = append(m.submissions, submission)
	return nil
}

func (m *memStore) UpdateSubmissionFlags(ctx context.Context, id string, notificationSent, autoResponseSent bool) error {
	return nil
}

func (m *memStore) ActiveSMTPSettings(ctx context.Context) (*models.SMTPSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *memStore) TemplateByType(ctx context.Context, templateType models.TemplateType) (*models.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tpl, ok := m.templates[templateType]
	if !ok {
		return nil, errors.New("template not found")
	}
	return tpl, nil
}

func (m *memStore) EnabledRecipients(ctx context.Context) ([]models.EmailRecipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recipients, nil
}

func (m *memStore) CreateEmailLog(ctx context.Context, entry *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = fmt.Sprintf("log-%d", len(m.logs)+1)
	copied := *entry
	m.logs[entry.ID] = &copied
	return nil
}

func (m *memStore) MarkEmailLogSent(ctx context.Context, id, response string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.logs[id]; ok {
		entry.Status = models.EmailStatusSent
		entry.SMTPResponse = response
		entry.SentAt = &sentAt
	}
	return nil
}

func (m *memStore) MarkEmailLogFailed(ctx context.Context, id, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.logs[id]; ok {
		entry.Status = models.EmailStatusFailed
		entry.ErrorMessage = errorMessage
	}
	return nil
}

func (m *memStore) submissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

func (m *memStore) logByID(id string) *models.EmailLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.logs[id]
	if entry == nil {
		return nil
	}
	copied := *entry
	return &copied
}

// stubSender scripts the transport outcome.
type stubSender struct {
	mu    sync.Mutex
	err   error
	sends []string
}

func (s *stubSender) Send(settings *models.SMTPSettings, msg *utils.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, msg.To)
	if s.err != nil {
		return "", s.err
	}
	return "250 accepted", nil
}

func (s *stubSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sends))
	copy(out, s.sends)
	return out
}
