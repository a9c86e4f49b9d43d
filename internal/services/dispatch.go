package services

import (
	"context"
	"fmt"
	"time"

	"atrium/internal/models"
	"atrium/internal/utils"
	"atrium/internal/utils/logger"
)

// DefaultSendTimeout bounds submission-triggered sends when the caller does
// not say otherwise.
const DefaultSendTimeout = 30 * time.Second

// DispatchRequest describes one send attempt.
type DispatchRequest struct {
	Settings            *models.SMTPSettings
	To                  string
	ToName              string
	Subject             string
	HTMLBody            string
	TextBody            string
	EmailType           models.EmailType
	RelatedSubmissionID *string
	Timeout             time.Duration
}

// DispatchResult is the always-resolved outcome of one attempt. Err carries
// the failure text when Sent is false; LogID points at the audit row either
// way (empty only when the pending insert itself failed).
type DispatchResult struct {
	Sent  bool
	Err   string
	LogID string
}

// Dispatcher is the shared send-with-logging primitive. It inserts a pending
// EmailLog row before the network is touched, races the SMTP transaction
// against a timer, and settles the row to sent or failed. It never returns an
// error: delivery problems are data, not control flow, so callers chain on the
// result instead of wrapping every send in error plumbing.
type Dispatcher struct {
	store  Store
	sender utils.Sender
	log    *logger.Logger
}

func NewDispatcher(store Store, sender utils.Sender) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		log:    logger.New("DISPATCH"),
	}
}

type sendOutcome struct {
	response string
	err      error
}

// Dispatch performs one audited send attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) DispatchResult {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	emailType := req.EmailType
	if emailType == "" {
		emailType = models.EmailTypeGeneral
	}

	entry := &models.EmailLog{
		RecipientEmail:      req.To,
		RecipientName:       req.ToName,
		SenderEmail:         req.Settings.FromEmail,
		Subject:             req.Subject,
		HTMLBody:            req.HTMLBody,
		TextBody:            req.TextBody,
		EmailType:           emailType,
		Status:              models.EmailStatusPending,
		RelatedSubmissionID: req.RelatedSubmissionID,
	}

	// The pending row must exist before the connection is opened so the
	// attempt stays observable if the process dies mid-send. When the insert
	// fails we refuse to send at all: an unaudited send is worse than a
	// deferred one.
	if err := d.store.CreateEmailLog(ctx, entry); err != nil {
		d.log.Error("failed to create email log", err)
		return DispatchResult{Sent: false, Err: fmt.Sprintf("failed to record send attempt: %v", err)}
	}

	outcomes := make(chan sendOutcome, 1)
	go func() {
		response, err := d.sender.Send(req.Settings, &utils.Message{
			To:       req.To,
			ToName:   req.ToName,
			Subject:  req.Subject,
			HTMLBody: req.HTMLBody,
			TextBody: req.TextBody,
		})
		outcomes <- sendOutcome{response: response, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-outcomes:
		if outcome.err != nil {
			d.settleFailed(ctx, entry.ID, outcome.err.Error())
			d.log.Warn("send to %s failed: %v", req.To, outcome.err)
			return DispatchResult{Sent: false, Err: outcome.err.Error(), LogID: entry.ID}
		}
		if err := d.store.MarkEmailLogSent(ctx, entry.ID, outcome.response, time.Now()); err != nil {
			d.log.Error("failed to mark email log sent", err)
		}
		d.log.Success("sent %s email to %s", emailType, req.To)
		return DispatchResult{Sent: true, LogID: entry.ID}

	case <-timer.C:
		// The SMTP goroutine may still be blocked on a server that accepted
		// the connection and went silent; it will settle into the buffered
		// channel and be discarded. The log row records the timeout as the
		// attempt's outcome.
		errMsg := fmt.Sprintf("send timed out after %s", timeout)
		d.settleFailed(ctx, entry.ID, errMsg)
		d.log.Warn("send to %s timed out after %s", req.To, timeout)
		return DispatchResult{Sent: false, Err: errMsg, LogID: entry.ID}
	}
}

func (d *Dispatcher) settleFailed(ctx context.Context, logID, errMsg string) {
	if err := d.store.MarkEmailLogFailed(ctx, logID, errMsg); err != nil {
		d.log.Error("failed to mark email log failed", err)
	}
}
