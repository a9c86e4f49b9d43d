package models

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultRolePermissions = map[string][]string{
	"administrator": {
		"pages:read", "pages:update",
		"media:read", "media:update",
		"submissions:read", "submissions:update",
		"email_logs:read", "email_logs:update",
		"smtp_settings:read", "smtp_settings:update",
		"templates:read", "templates:update",
		"recipients:read", "recipients:update",
		"users:create", "users:read", "users:update",
		"roles:read",
	},
	"editor": {
		"pages:read", "pages:update",
		"media:read", "media:update",
		"submissions:read",
		"email_logs:read",
	},
}

var defaultTemplates = []EmailTemplate{
	{
		TemplateType: TemplateTypeContactNotification,
		Subject:      "New contact form submission: {{subject}}",
		HTMLBody: "<h2>New contact form submission</h2>" +
			"<p><strong>Name:</strong> {{name}}</p>" +
			"<p><strong>Email:</strong> {{email}}</p>" +
			"<p><strong>Phone:</strong> {{phone}}</p>" +
			"<p><strong>Message:</strong></p><p>{{message}}</p>" +
			"<p>Received on {{date}} at {{time}}.</p>",
		TextBody: "New contact form submission\n\n" +
			"Name: {{name}}\nEmail: {{email}}\nPhone: {{phone}}\n\n" +
			"{{message}}\n\nReceived on {{date}} at {{time}}.",
		Variables: []string{"name", "email", "phone", "subject", "message", "date", "time"},
		Enabled:   true,
	},
	{
		TemplateType: TemplateTypeAutoResponse,
		Subject:      "Thanks for getting in touch, {{name}}",
		HTMLBody: "<p>Hi {{name}},</p>" +
			"<p>Thanks for reaching out. We received your message on {{date}} and " +
			"will get back to you shortly.</p>",
		TextBody: "Hi {{name}},\n\nThanks for reaching out. We received your " +
			"message on {{date}} and will get back to you shortly.\n",
		Variables: []string{"name", "date"},
		Enabled:   true,
	},
}

// SeedRoles creates the default roles and their permission rows.
func SeedRoles(db *gorm.DB) error {
	for name, permissions := range defaultRolePermissions {
		role := UserRole{Name: name}
		if err := db.FirstOrCreate(&role, UserRole{Name: name}).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %w", name, err)
		}
		for _, permission := range permissions {
			perm := RolePermission{RoleID: role.ID, Permission: permission}
			if err := db.FirstOrCreate(&perm, RolePermission{
				RoleID:     role.ID,
				Permission: permission,
			}).Error; err != nil {
				return fmt.Errorf("failed to create permission %s for role %s: %w", permission, name, err)
			}
		}
	}
	return nil
}

// SeedTemplates installs the stock contact templates when none exist for a
// type. Admin edits are never overwritten.
func SeedTemplates(db *gorm.DB) error {
	for _, template := range defaultTemplates {
		var count int64
		if err := db.Model(&EmailTemplate{}).
			Where("template_type = ?", template.TemplateType).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check template %s: %w", template.TemplateType, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&template).Error; err != nil {
			return fmt.Errorf("failed to create template %s: %w", template.TemplateType, err)
		}
	}
	return nil
}

// CreateAdminFromEnv bootstraps the first administrator account. No-op when
// any admin user already exists.
func CreateAdminFromEnv(db *gorm.DB) error {
	var count int64
	if err := db.Model(&AdminUser{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	username, ok := os.LookupEnv("ADMIN_USERNAME")
	if !ok {
		return fmt.Errorf("ADMIN_USERNAME not set")
	}
	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("ADMIN_PASSWORD not set")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	role := UserRole{Name: "administrator"}
	if err := db.Where("name = ?", role.Name).First(&role).Error; err != nil {
		return fmt.Errorf("failed to find administrator role: %w", err)
	}

	user := AdminUser{
		Username:     username,
		Email:        os.Getenv("ADMIN_EMAIL"),
		PasswordHash: string(hashedPassword),
		RoleID:       role.ID,
		IsActive:     true,
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}
