package models

import (
	"gorm.io/gorm"
)

// ActiveSMTPSettings returns the newest enabled relay configuration. The admin
// screens keep a single row in practice; ordering makes the answer
// deterministic if they ever do not.
func ActiveSMTPSettings(db *gorm.DB) (*SMTPSettings, error) {
	settings := &SMTPSettings{}
	if err := db.Where("enabled = ?", true).Order("updated_at DESC").First(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// TemplateByType returns the template for one type, enabled or not; callers
// check Enabled so that a disabled template reads as "nothing to send" rather
// than an error.
func TemplateByType(db *gorm.DB, templateType TemplateType) (*EmailTemplate, error) {
	template := &EmailTemplate{}
	if err := db.Where("template_type = ?", templateType).First(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// EnabledRecipients returns the staff addresses that should receive contact
// notifications.
func EnabledRecipients(db *gorm.DB) ([]EmailRecipient, error) {
	var recipients []EmailRecipient
	if err := db.Where("enabled = ?", true).Order("created_at ASC").Find(&recipients).Error; err != nil {
		return nil, err
	}
	return recipients, nil
}

// PermissionsForRole flattens a role's permission rows into strings.
func PermissionsForRole(db *gorm.DB, roleID string) ([]string, error) {
	var rows []RolePermission
	if err := db.Where("role_id = ?", roleID).Find(&rows).Error; err != nil {
		return nil, err
	}
	permissions := make([]string, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, row.Permission)
	}
	return permissions, nil
}
