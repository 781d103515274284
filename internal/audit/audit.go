// AngelaMos | 2026
// audit.go

// Package audit records who changed what in the agency tables.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketflow/agency-api/internal/core"
)

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionTransition = "transition"
	ActionDeactivate = "deactivate"
)

type Entry struct {
	ID        string          `db:"id"         json:"id"`
	TableName string          `db:"table_name" json:"table_name"`
	RecordID  *string         `db:"record_id"  json:"record_id,omitempty"`
	Action    string          `db:"action"     json:"action"`
	UserID    *string         `db:"user_id"    json:"user_id,omitempty"`
	OldData   json.RawMessage `db:"old_data"   json:"old_data,omitempty"`
	NewData   json.RawMessage `db:"new_data"   json:"new_data,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type ListParams struct {
	Page      int
	PageSize  int
	TableName string
	RecordID  string
	UserID    string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Change describes one write to an agency table.
type Change struct {
	Table    string
	RecordID string
	Action   string
	UserID   string
	Old      any
	New      any
}

type Log struct {
	db core.DBTX
}

func NewLog(db core.DBTX) *Log {
	return &Log{db: db}
}

// With returns a Log that writes through db, typically an open
// transaction.
func (l *Log) With(db core.DBTX) *Log {
	return &Log{db: db}
}

func (l *Log) Record(ctx context.Context, c Change) error {
	oldJSON, err := encode(c.Old)
	if err != nil {
		return fmt.Errorf("encode audit old data: %w", err)
	}
	newJSON, err := encode(c.New)
	if err != nil {
		return fmt.Errorf("encode audit new data: %w", err)
	}

	query := `
		INSERT INTO audit_logs (
			id, table_name, record_id, action, user_id, old_data, new_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = l.db.ExecContext(ctx, query,
		uuid.New().String(),
		c.Table,
		nullable(c.RecordID),
		c.Action,
		nullable(c.UserID),
		oldJSON,
		newJSON,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}

// RecordQuietly is Record for changes that have already been committed.
func (l *Log) RecordQuietly(ctx context.Context, c Change) {
	if err := l.Record(ctx, c); err != nil {
		slog.WarnContext(ctx, "audit entry not written",
			"table", c.Table,
			"record_id", c.RecordID,
			"action", c.Action,
			"error", err,
		)
	}
}

func (l *Log) List(
	ctx context.Context,
	params ListParams,
) ([]Entry, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	add("table_name = $%d", params.TableName)
	add("record_id = $%d::uuid", params.RecordID)
	add("user_id = $%d::uuid", params.UserID)

	where := strings.Join(conditions, " AND ")

	var total int
	if err := l.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM audit_logs WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, table_name, record_id, action, user_id,
		       old_data, new_data, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	entries := []Entry{}
	if err := l.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, total, nil
}

func encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
