package models

import (
	"time"
)

type AdminUser struct {
	Base
	Username     string     `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=3"`
	Email        string     `json:"email" validate:"omitempty,email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	RoleID       string     `gorm:"type:uuid;not null" json:"roleId" validate:"required,uuid"`
	Role         *UserRole  `json:"role,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

type UserRole struct {
	Base
	Name        string           `gorm:"uniqueIndex;not null" json:"name" validate:"required,min=2"`
	Description string           `json:"description"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	Users       []AdminUser      `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

type RolePermission struct {
	Base
	RoleID     string `gorm:"type:uuid;not null;index" json:"roleId" validate:"required,uuid"`
	Permission string `gorm:"not null" json:"permission" validate:"required"`
}
