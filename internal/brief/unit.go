// AngelaMos | 2026
// unit.go

package brief

import (
	"context"

	"github.com/marketflow/agency-api/internal/audit"
	"github.com/marketflow/agency-api/internal/core"
	"github.com/marketflow/agency-api/internal/task"
)

// Recorder writes an audit entry and reports failure, so a transaction
// can roll back with it.
type Recorder interface {
	Record(ctx context.Context, c audit.Change) error
}

// Stores are the repositories bound to one transaction.
type Stores struct {
	Briefs Repository
	Tasks  task.Repository
	Audit  Recorder
}

// UnitOfWork runs fn atomically. Nothing fn wrote survives an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Stores) error) error
}

type txUnit struct {
	tx  core.Transactor
	log *audit.Log
}

func NewUnitOfWork(tx core.Transactor, log *audit.Log) UnitOfWork {
	return &txUnit{tx: tx, log: log}
}

func (u *txUnit) Do(ctx context.Context, fn func(Stores) error) error {
	return u.tx.WithinTx(ctx, func(db core.DBTX) error {
		return fn(Stores{
			Briefs: NewRepository(db),
			Tasks:  task.NewRepository(db),
			Audit:  u.log.With(db),
		})
	})
}
