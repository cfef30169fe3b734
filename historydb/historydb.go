// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package historydb persists the stream of engine events into sqlite so
// that past activity can be filtered and paged through.
package historydb

import (
	"context"
	"database/sql"
	"math/big"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nuonetwork/stakevault/engine"
	"github.com/nuonetwork/stakevault/nuo"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	stakeId INTEGER NOT NULL,
	vaultId INTEGER NOT NULL,
	owner BLOB NOT NULL,
	amount TEXT NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS event_owner ON event(owner);
CREATE INDEX IF NOT EXISTS event_vault ON event(vaultId);`

// HistoryDB stores engine events in a sqlite database.
type HistoryDB struct {
	path string
	db   *sql.DB
}

// New creates or opens a history db at the given path.
func New(path string) (historyDB *HistoryDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if historyDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &HistoryDB{path, db}, nil
}

// NewMem creates a history db in ram.
func NewMem() (*HistoryDB, error) {
	return New("file::memory:?cache=shared")
}

// Close closes the history db.
func (db *HistoryDB) Close() error {
	return db.db.Close()
}

func (db *HistoryDB) Path() string {
	return db.path
}

// Write appends one event.
func (db *HistoryDB) Write(ev *engine.Event) error {
	amount := "0"
	if ev.Amount != nil {
		amount = ev.Amount.String()
	}
	_, err := db.db.Exec(
		"INSERT INTO event(type, stakeId, vaultId, owner, amount, ts) VALUES(?,?,?,?,?,?)",
		string(ev.Type), ev.StakeID, ev.VaultID, ev.Owner.Bytes(), amount, ev.Time,
	)
	return err
}

// Filter returns events matching the filter, oldest first unless the
// filter says otherwise. A nil filter returns everything.
func (db *HistoryDB) Filter(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT seq, type, stakeId, vaultId, owner, amount, ts FROM event ORDER BY seq ASC")
	}
	var args []interface{}
	stmt := "SELECT seq, type, stakeId, vaultId, owner, amount, ts FROM event WHERE 1"
	if filter.Owner != nil {
		args = append(args, filter.Owner.Bytes())
		stmt += " AND owner = ?"
	}
	if filter.VaultID != nil {
		args = append(args, *filter.VaultID)
		stmt += " AND vaultId = ?"
	}
	if filter.StakeID != nil {
		args = append(args, *filter.StakeID)
		stmt += " AND stakeId = ?"
	}
	if len(filter.Types) > 0 {
		stmt += " AND type IN ("
		for i, typ := range filter.Types {
			if i > 0 {
				stmt += ","
			}
			stmt += "?"
			args = append(args, string(typ))
		}
		stmt += ")"
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND ts >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND ts <= ?"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *HistoryDB) queryEvents(ctx context.Context, stmt string, args ...interface{}) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev     Event
			typ    string
			owner  []byte
			amount string
		)
		if err := rows.Scan(&ev.Seq, &typ, &ev.StakeID, &ev.VaultID, &owner, &amount, &ev.Time); err != nil {
			return nil, err
		}
		ev.Type = engine.EventType(typ)
		ev.Owner = nuo.BytesToAddress(owner)
		ev.Amount, _ = new(big.Int).SetString(amount, 10)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
