package model

import (
	"time"
)

// MigrationVersion is one row per successful MigrateAll run that changed the schema
type MigrationVersion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Version     string    `gorm:"type:varchar(20);not null;index"`
	FromVersion string    `gorm:"type:varchar(20)"` // Empty on a fresh database
	AppliedAt   time.Time `gorm:"not null;index"`
	DurationMs  int64     `gorm:"not null;default:0"`
	Details     string    `gorm:"type:text"`
}

// TableName specifies the table name for the migration version model
func (MigrationVersion) TableName() string {
	return "schema_migrations"
}
