package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ContactSubmission is one visitor form post. Created once per inbound request
// and later mutated exactly once to record the two delivery outcomes. Never
// deleted by this service.
type ContactSubmission struct {
	Base
	Name             string     `gorm:"not null" json:"name" validate:"required"`
	Email            string     `gorm:"not null;index" json:"email" validate:"required,email"`
	Phone            string     `json:"phone" validate:"omitempty"`
	Subject          string     `gorm:"not null" json:"subject"`
	Message          string     `gorm:"type:text;not null" json:"message" validate:"required"`
	ClientIP         string     `json:"clientIp" validate:"omitempty,ip"`
	NotificationSent bool       `gorm:"not null;default:false" json:"notificationSent"`
	AutoResponseSent bool       `gorm:"not null;default:false" json:"autoResponseSent"`
	EmailLogs        []EmailLog `gorm:"foreignKey:RelatedSubmissionID" json:"emailLogs,omitempty"`
}

// SMTPSettings describes the outbound mail relay. At most one enabled row is
// consulted; the admin screens own the writes.
type SMTPSettings struct {
	Base
	Host       string         `gorm:"not null" json:"host" validate:"required,hostname"`
	Port       int            `gorm:"not null;default:587" json:"port" validate:"required,min=1,max=65535"`
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	Encryption EncryptionMode `gorm:"not null;default:'tls'" json:"encryption" validate:"required,oneof=tls ssl none"`
	FromEmail  string         `gorm:"not null" json:"fromEmail" validate:"required,email"`
	FromName   string         `json:"fromName"`
	Enabled    bool           `gorm:"not null;default:true" json:"enabled"`
}

// EmailTemplate holds subject/body strings with {{placeholder}} tokens.
type EmailTemplate struct {
	Base
	TemplateType TemplateType   `gorm:"uniqueIndex;not null" json:"templateType" validate:"required"`
	Subject      string         `gorm:"not null" json:"subject" validate:"required"`
	HTMLBody     string         `gorm:"type:text;not null" json:"htmlBody" validate:"required"`
	TextBody     string         `gorm:"type:text" json:"textBody"`
	Variables    pq.StringArray `gorm:"type:text[]" json:"variables" validate:"omitempty,dive,min=1"`
	Enabled      bool           `gorm:"not null;default:true" json:"enabled"`
}

// EmailRecipient is a staff address that receives contact notifications.
type EmailRecipient struct {
	Base
	Email   string `gorm:"not null" json:"email" validate:"required,email"`
	Name    string `json:"name"`
	Enabled bool   `gorm:"not null;default:true" json:"enabled"`
}

// EmailLog is the audit record of one attempted send. A row is inserted in
// pending state before the network is touched and updated in place to its
// terminal state once the attempt resolves, so every attempt stays observable
// even across a crash mid-send.
type EmailLog struct {
	Base
	RecipientEmail      string             `gorm:"not null;index" json:"recipientEmail" validate:"required,email"`
	RecipientName       string             `json:"recipientName"`
	SenderEmail         string             `gorm:"not null" json:"senderEmail" validate:"required,email"`
	Subject             string             `gorm:"not null" json:"subject"`
	HTMLBody            string             `gorm:"type:text" json:"htmlBody"`
	TextBody            string             `gorm:"type:text" json:"textBody"`
	EmailType           EmailType          `gorm:"not null;default:'general';index" json:"emailType" validate:"required,oneof=contact_notification auto_response test general"`
	Status              EmailStatus        `gorm:"not null;default:'pending';index" json:"status" validate:"required,oneof=pending sent failed"`
	ErrorMessage        string             `json:"errorMessage"`
	SMTPResponse        string             `json:"smtpResponse"`
	RelatedSubmissionID *string            `gorm:"type:uuid;default:NULL;index" json:"relatedSubmissionId" validate:"omitempty,uuid"`
	RelatedSubmission   *ContactSubmission `json:"relatedSubmission,omitempty"`
	Metadata            datatypes.JSON     `gorm:"type:jsonb;default:'{}'" json:"metadata" validate:"omitempty,json"`
	IsRead              bool               `gorm:"not null;default:false" json:"isRead"`
	RetryCount          int                `gorm:"not null;default:0" json:"retryCount"`
	SentAt              *time.Time         `json:"sentAt"`
}
