// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the treasury event stream to sqlite for audit
// queries. It stores emitted events only, never ledger state.
package eventdb

import (
	"database/sql"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/backstopfi/backstop/backstop"
	"github.com/backstopfi/backstop/events"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	pool TEXT,
	account BLOB,
	asset BLOB,
	amount TEXT,
	shares TEXT,
	ref BLOB,
	time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS event_kind ON event(kind);
CREATE INDEX IF NOT EXISTS event_account ON event(account);
CREATE INDEX IF NOT EXISTS event_time ON event(time);`

type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range limits a filter to events with Time in [From, To].
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects stored events.
type Filter struct {
	Kinds   []events.Kind     `json:"kinds"`
	Account *backstop.Address `json:"account"`
	Pool    *string           `json:"pool"`
	Order   OrderType         `json:"order"` // default asc
	Range   *Range
	Options *Options
}

// Record is a stored event with its insertion sequence number.
type Record struct {
	Seq uint64 `json:"seq"`
	events.Event
}

// EventDB manages the audit log.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens (creating if needed) an event db at path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem creates an in-memory event db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert appends events to the log.
func (db *EventDB) Insert(evs ...*events.Event) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range evs {
		if _, err = tx.Exec("INSERT INTO event(kind, pool, account, asset, amount, shares, ref, time) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
			string(ev.Kind),
			ev.Pool,
			ev.Account.Bytes(),
			ev.Asset.Bytes(),
			bigValue(ev.Amount),
			bigValue(ev.Shares),
			refValue(ev.Ref),
			ev.Time); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Filter returns stored events matching the filter, insertion-ordered.
func (db *EventDB) Filter(filter *Filter) ([]*Record, error) {
	if filter == nil {
		return db.query("SELECT * FROM event ORDER BY seq ASC")
	}
	var args []interface{}
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if filter.Pool != nil {
		args = append(args, *filter.Pool)
		stmt += " AND pool = ? "
	}
	if len(filter.Kinds) > 0 {
		stmt += " AND kind IN ("
		for i, kind := range filter.Kinds {
			if i > 0 {
				stmt += ","
			}
			stmt += "?"
			args = append(args, string(kind))
		}
		stmt += ") "
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...interface{}) ([]*Record, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			seq     uint64
			kind    string
			pool    string
			account []byte
			asset   []byte
			amount  sql.NullString
			shares  sql.NullString
			ref     []byte
			time    uint64
		)
		if err := rows.Scan(
			&seq,
			&kind,
			&pool,
			&account,
			&asset,
			&amount,
			&shares,
			&ref,
			&time,
		); err != nil {
			return nil, err
		}
		rec := &Record{
			Seq: seq,
			Event: events.Event{
				Kind:    events.Kind(kind),
				Pool:    pool,
				Account: backstop.BytesToAddress(account),
				Asset:   backstop.BytesToAddress(asset),
				Amount:  bigFromValue(amount),
				Shares:  bigFromValue(shares),
				Time:    time,
			},
		}
		if len(ref) > 0 {
			r := backstop.BytesToBytes32(ref)
			rec.Ref = &r
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Path returns the db file path.
func (db *EventDB) Path() string {
	return db.path
}

// Close closes the underlying sqlite handle.
func (db *EventDB) Close() {
	db.db.Close()
}

// amounts are stored as decimal strings, sqlite integers top out at int64
func refValue(ref *backstop.Bytes32) interface{} {
	if ref == nil {
		return nil
	}
	return ref.Bytes()
}

func bigValue(v *big.Int) interface{} {
	if v == nil {
		return nil
	}
	return v.String()
}

func bigFromValue(v sql.NullString) *big.Int {
	if !v.Valid {
		return nil
	}
	r, ok := new(big.Int).SetString(v.String, 10)
	if !ok {
		return nil
	}
	return r
}
