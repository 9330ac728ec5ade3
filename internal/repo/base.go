// Package repo holds the plumbing shared by the orders, ledger and cashout
// repositories: context binding, transaction rebinding, row locks and the
// single-row conditional update check their state machines rely on.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base is embedded by domain repositories.
type Base struct {
	db   *gorm.DB
	inTx bool
}

// NewBase wraps a pooled connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx rebinds the repository to an open transaction. A nil tx keeps the
// current binding.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx, inTx: true}
}

// InTx reports whether the repository is bound to a transaction.
func (b Base) InTx() bool {
	return b.inTx
}

// DB returns the connection bound to ctx when one is supplied.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// ForUpdate is DB with SELECT ... FOR UPDATE. The lock is only held inside a
// transaction; on a pooled connection it is released when the statement ends.
func (b Base) ForUpdate(ctx context.Context) *gorm.DB {
	return b.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// SingleRow turns the result of a guarded UPDATE (WHERE id = ? AND status = ?)
// into whether this caller won the transition.
func SingleRow(res *gorm.DB) (bool, error) {
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
