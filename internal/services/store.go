package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"atrium/internal/models"
)

// Store is the persistence surface the mail pipeline needs. It is an
// interface so tests can substitute an in-memory fake for the database.
type Store interface {
	CreateSubmission(ctx context.Context, submission *models.ContactSubmission) error
	UpdateSubmissionFlags(ctx context.Context, id string, notificationSent, autoResponseSent bool) error
	ActiveSMTPSettings(ctx context.Context) (*models.SMTPSettings, error)
	TemplateByType(ctx context.Context, templateType models.TemplateType) (*models.EmailTemplate, error)
	EnabledRecipients(ctx context.Context) ([]models.EmailRecipient, error)
	CreateEmailLog(ctx context.Context, entry *models.EmailLog) error
	MarkEmailLogSent(ctx context.Context, id, response string, sentAt time.Time) error
	MarkEmailLogFailed(ctx context.Context, id, errorMessage string) error
}

// UserStore is the persistence surface of the admin auth manager.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	UserByID(ctx context.Context, id string) (*models.AdminUser, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, user *models.AdminUser) error
	UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
}

// GormStore implements Store and UserStore on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateSubmission(ctx context.Context, submission *models.ContactSubmission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *GormStore) UpdateSubmissionFlags(ctx context.Context, id string, notificationSent, autoResponseSent bool) error {
	return s.db.WithContext(ctx).Model(&models.ContactSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notification_sent":  notificationSent,
			"auto_response_sent": autoResponseSent,
		}).Error
}

func (s *GormStore) ActiveSMTPSettings(ctx context.Context) (*models.SMTPSettings, error) {
	return models.ActiveSMTPSettings(s.db.WithContext(ctx))
}

func (s *GormStore) TemplateByType(ctx context.Context, templateType models.TemplateType) (*models.EmailTemplate, error) {
	return models.TemplateByType(s.db.WithContext(ctx), templateType)
}

func (s *GormStore) EnabledRecipients(ctx context.Context) ([]models.EmailRecipient, error) {
	return models.EnabledRecipients(s.db.WithContext(ctx))
}

func (s *GormStore) CreateEmailLog(ctx context.Context, entry *models.EmailLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) MarkEmailLogSent(ctx context.Context, id, response string, sentAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.EmailLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.EmailStatusSent,
			"smtp_response": response,
			"sent_at":       sentAt,
			"error_message": "",
		}).Error
}

func (s *GormStore) MarkEmailLogFailed(ctx context.Context, id, errorMessage string) error {
	return s.db.WithContext(ctx).Model(&models.EmailLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.EmailStatusFailed,
			"error_message": errorMessage,
		}).Error
}

func (s *GormStore) UserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	user := &models.AdminUser{}
	if err := s.db.WithContext(ctx).Preload("Role").
		Where("username = ?", username).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (*models.AdminUser, error) {
	user := &models.AdminUser{}
	if err := s.db.WithContext(ctx).Preload("Role").
		Where("id = ?", id).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *GormStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.AdminUser) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("id = ?", id).Updates(fields).Error
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("id = ?", id).Update("last_login_at", at).Error
}

func (s *GormStore) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	return models.PermissionsForRole(s.db.WithContext(ctx), roleID)
}
