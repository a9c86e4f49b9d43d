package services

import (
	"context"
	"sync"
	"time"

	"atrium/internal/config"
	"atrium/internal/models"
	"atrium/internal/utils"
	"atrium/internal/utils/logger"
)

// DefaultContactSubject is used when a visitor leaves the subject blank.
const DefaultContactSubject = "Website Contact Form"

// ContactRequest is a visitor's form payload.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

// SubmissionResult reports what happened to one submission. EmailsSent is
// false on the degraded path where the relay is missing or disabled;
// submission capture is the primary guarantee and delivery is best-effort on
// top of it.
type SubmissionResult struct {
	SubmissionID     string
	EmailsSent       bool
	NotificationSent bool
	AutoResponseSent bool
}

// Mailer runs the contact intake pipeline: persist the submission, load relay
// configuration and templates, render, send, and record the outcomes.
type Mailer struct {
	store      Store
	dispatcher *Dispatcher
	cfg        config.MailerConfig
	log        *logger.Logger
}

func NewMailer(store Store, dispatcher *Dispatcher, cfg config.MailerConfig) *Mailer {
	return &Mailer{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        logger.New("MAILER"),
	}
}

// ProcessSubmission handles one validated contact form post. A returned error
// means the submission could not be persisted and the caller must surface a
// server failure; every later problem is absorbed into the result flags and
// the email log.
func (m *Mailer) ProcessSubmission(ctx context.Context, req *ContactRequest, clientIP string) (*SubmissionResult, error) {
	subject := req.Subject
	if subject == "" {
		subject = DefaultContactSubject
	}

	submission := &models.ContactSubmission{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  subject,
		Message:  req.Message,
		ClientIP: clientIP,
	}

	if err := m.store.CreateSubmission(ctx, submission); err != nil {
		return nil, m.log.Error("failed to store contact submission", err)
	}

	result := &SubmissionResult{SubmissionID: submission.ID}

	settings, err := m.store.ActiveSMTPSettings(ctx)
	if err != nil || settings == nil || !settings.Enabled || settings.Host == "" {
		if err != nil {
			m.log.Warn("no usable SMTP settings, skipping emails: %v", err)
		} else {
			m.log.Warn("SMTP disabled or unconfigured, skipping emails")
		}
		return result, nil
	}

	// Templates and recipients are independent reads; load them in parallel.
	var (
		notificationTpl *models.EmailTemplate
		autoResponseTpl *models.EmailTemplate
		recipients      []models.EmailRecipient
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		if notificationTpl, err = m.store.TemplateByType(ctx, models.TemplateTypeContactNotification); err != nil {
			m.log.Debug("no contact notification template: %v", err)
		}
		if autoResponseTpl, err = m.store.TemplateByType(ctx, models.TemplateTypeAutoResponse); err != nil {
			m.log.Debug("no auto response template: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if recipients, err = m.store.EnabledRecipients(ctx); err != nil {
			m.log.Warn("failed to load notification recipients: %v", err)
		}
	}()
	wg.Wait()

	variables := m.placeholderValues(submission, time.Now())

	if notificationTpl != nil && notificationTpl.Enabled && len(recipients) > 0 {
		result.NotificationSent = m.sendNotifications(ctx, settings, notificationTpl, recipients, variables, submission.ID)
	}

	if autoResponseTpl != nil && autoResponseTpl.Enabled {
		result.AutoResponseSent = m.sendAutoResponse(ctx, settings, autoResponseTpl, submission, variables)
	}

	result.EmailsSent = result.NotificationSent || result.AutoResponseSent

	if err := m.store.UpdateSubmissionFlags(ctx, submission.ID, result.NotificationSent, result.AutoResponseSent); err != nil {
		// The submission itself is safe and the attempts are in the log, so
		// this does not fail the request.
		m.log.Error("failed to update submission flags", err)
	}

	return result, nil
}

// placeholderValues builds the substitution map for template rendering. Date
// and time use a human-readable local format because they appear verbatim in
// the emails.
func (m *Mailer) placeholderValues(submission *models.ContactSubmission, now time.Time) map[string]string {
	return map[string]string{
		"name":    submission.Name,
		"email":   submission.Email,
		"phone":   submission.Phone,
		"subject": submission.Subject,
		"message": submission.Message,
		"date":    now.Format("January 2, 2006"),
		"time":    now.Format("3:04 PM"),
	}
}

// sendNotifications broadcasts the rendered notification to every enabled
// recipient, one attempt at a time. One success is enough to count the
// notification as sent; each attempt keeps its own log row regardless.
func (m *Mailer) sendNotifications(
	ctx context.Context,
	settings *models.SMTPSettings,
	tpl *models.EmailTemplate,
	recipients []models.EmailRecipient,
	variables map[string]string,
	submissionID string,
) bool {
	subject := utils.ReplaceVariables(tpl.Subject, variables)
	htmlBody := utils.ReplaceVariables(tpl.HTMLBody, variables)
	textBody := utils.ReplaceVariables(tpl.TextBody, variables)

	anySent := false
	for _, recipient := range recipients {
		res := m.dispatcher.Dispatch(ctx, DispatchRequest{
			Settings:            settings,
			To:                  recipient.Email,
			ToName:              recipient.Name,
			Subject:             subject,
			HTMLBody:            htmlBody,
			TextBody:            textBody,
			EmailType:           models.EmailTypeContactNotification,
			RelatedSubmissionID: &submissionID,
			Timeout:             m.cfg.SendTimeout,
		})
		if res.Sent {
			anySent = true
		}
	}
	return anySent
}

func (m *Mailer) sendAutoResponse(
	ctx context.Context,
	settings *models.SMTPSettings,
	tpl *models.EmailTemplate,
	submission *models.ContactSubmission,
	variables map[string]string,
) bool {
	res := m.dispatcher.Dispatch(ctx, DispatchRequest{
		Settings:            settings,
		To:                  submission.Email,
		ToName:              submission.Name,
		Subject:             utils.ReplaceVariables(tpl.Subject, variables),
		HTMLBody:            utils.ReplaceVariables(tpl.HTMLBody, variables),
		TextBody:            utils.ReplaceVariables(tpl.TextBody, variables),
		EmailType:           models.EmailTypeAutoResponse,
		RelatedSubmissionID: &submission.ID,
		Timeout:             m.cfg.SendTimeout,
	})
	return res.Sent
}
