package main

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingsSnapshot is the durable copy of the effective form settings. There
// is exactly one row, identified by the fixed snapshot key; the blob is an
// opaque, versionless JSON object.
type SettingsSnapshot struct {
	gorm.Model
	Key  string         `gorm:"uniqueIndex"`
	Data datatypes.JSON `gorm:"type:json"`
}

// AdminUser represents the operator account with access to the admin panel
type AdminUser struct {
	gorm.Model
	Username     string         `gorm:"uniqueIndex"`
	PasswordHash datatypes.JSON `gorm:"type:json"`
	SessionToken string         `gorm:"index;unique"`
}
