package db

import (
	"fmt"

	"lending-ledger/internal/domain/event"
	"lending-ledger/internal/domain/loan"
	"lending-ledger/internal/domain/userindex"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates the ledger tables and seeds the counters row. Running it
// again leaves existing counters untouched.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&loan.Loan{},
		&loan.Counters{},
		&userindex.Entry{},
		&event.Event{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	seed := &loan.Counters{ID: loan.CountersRowID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}
	return nil
}
