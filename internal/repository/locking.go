package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a pessimistic row lock on Postgres. SQLite, used by
// the test suite, has no row locks; its single-writer transactions
// already serialize conflicting writes.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// scope returns tx when the caller runs inside a transaction, falling
// back to the repository's root handle otherwise.
func scope(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
