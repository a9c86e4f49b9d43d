package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// EmailStatus is the lifecycle of one send attempt.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// EmailType tags what kind of message a log row records.
type EmailType string

const (
	EmailTypeContactNotification EmailType = "contact_notification"
	EmailTypeAutoResponse        EmailType = "auto_response"
	EmailTypeTest                EmailType = "test"
	EmailTypeGeneral             EmailType = "general"
)

// TemplateType keys the stored email templates.
type TemplateType string

const (
	TemplateTypeContactNotification TemplateType = "contact_notification"
	TemplateTypeAutoResponse        TemplateType = "auto_response"
)

// EncryptionMode selects how the SMTP connection is secured.
type EncryptionMode string

const (
	EncryptionTLS  EncryptionMode = "tls" // STARTTLS upgrade after plain connect
	EncryptionSSL  EncryptionMode = "ssl" // implicit TLS from the first byte
	EncryptionNone EncryptionMode = "none"
)
