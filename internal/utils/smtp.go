package utils

import (
	"crypto/tls"
	"fmt"

	"github.com/emersion/go-sasl"
	smtp "github.com/emersion/go-smtp"
	gomail "gopkg.in/gomail.v2"

	"atrium/internal/models"
)

// Message is one outbound email ready for transport.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a message through the relay described by settings and
// returns the transport response where the protocol exchange exposes one.
type Sender interface {
	Send(settings *models.SMTPSettings, msg *Message) (string, error)
}

// SMTPSender talks to the relay directly: the message is composed as
// multipart/alternative and streamed into the DATA phase of one SMTP
// transaction.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(settings *models.SMTPSettings, msg *Message) (string, error) {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", settings.FromEmail, settings.FromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	if msg.TextBody != "" {
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	} else {
		m.SetBody("text/html", msg.HTMLBody)
	}

	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	client, err := s.dial(addr, settings)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer client.Close()

	if settings.Username != "" {
		auth := sasl.NewPlainClient("", settings.Username, settings.Password)
		if err := client.Auth(auth); err != nil {
			return "", fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(settings.FromEmail, nil); err != nil {
		return "", fmt.Errorf("sender rejected: %w", err)
	}
	if err := client.Rcpt(msg.To, nil); err != nil {
		return "", fmt.Errorf("recipient rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("failed to open data stream: %w", err)
	}
	if _, err := m.WriteTo(w); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write message: %w", err)
	}
	// Close flushes the final dot; a rejection at this point carries the
	// server's verdict on the message itself.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("server rejected message: %w", err)
	}

	_ = client.Quit()

	return fmt.Sprintf("message accepted by %s", addr), nil
}

func (s *SMTPSender) dial(addr string, settings *models.SMTPSettings) (*smtp.Client, error) {
	switch settings.Encryption {
	case models.EncryptionSSL:
		return smtp.DialTLS(addr, &tls.Config{ServerName: settings.Host})
	case models.EncryptionTLS:
		return smtp.DialStartTLS(addr, &tls.Config{ServerName: settings.Host})
	default:
		return smtp.Dial(addr)
	}
}
