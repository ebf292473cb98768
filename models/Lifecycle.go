package models

import "gorm.io/gorm"

// Lifecycle is the soft-delete state carried by every inventory record.
// Records are never removed; deactivation moves them to LifecycleInactive.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

// IsActive reports whether the record is still visible to read paths.
func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}

// Active restricts a query to records in the active lifecycle state.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", LifecycleActive)
}
