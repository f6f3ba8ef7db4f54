package database

import (
	"quota-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open opens a GORM DB from DSN (Postgres, pooler-friendly).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers (e.g. PgBouncer).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the engine's three tables (holdings,
// commissions+provisions, provision logs).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Holding{},
		&models.Commission{},
		&models.Provision{},
		&models.ProvisionLog{},
	)
}

// ForUpdate adds SELECT ... FOR UPDATE to the query. SQLite (used by tests)
// has no row locks and a single writer, so the clause is skipped there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
