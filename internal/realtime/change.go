// AngelaMos | 2026
// change.go

// Package realtime relays row changes published by PostgreSQL triggers to
// the collection cache and to streaming clients.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OpResync tells subscribers that changes may have been missed and they
// should reload.
const OpResync = "RESYNC"

// Tables that publish changes.
var Tables = []string{"briefs", "tasks"}

// Change is one notification payload.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
}

func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("decode change payload: %w", err)
	}
	if c.Table == "" || c.Op == "" {
		return Change{}, errors.New("change payload missing table or op")
	}
	return c, nil
}

func KnownTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
