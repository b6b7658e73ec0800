package tenant

import "gorm.io/gorm"

// Scope filters any tenant-owned table. Every repository query goes through
// it; there is no ambient tenant state.
func Scope(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}
