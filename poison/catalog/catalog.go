// Package catalog keeps a SQLite ledger of materialized datasets, so external
// tooling can look up which poison produced the dataset at a given root
// without parsing meta.json itself.
package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/poisonset/poisonset/poison"
)

// ErrNotFound is returned by Latest when no entry exists for a root.
var ErrNotFound = errors.New("no catalog entry")

// Entry is one materialized dataset.
type Entry struct {
	ID            int64
	Fingerprint   string
	Root          string
	PoisonType    string
	Params        poison.Params
	TrainPoisoned int
	TestPoisoned  int
	CreatedAt     string
}

// Catalog wraps the ledger database.
type Catalog struct {
	*sql.DB
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS datasets (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			fingerprint       TEXT NOT NULL,
			root              TEXT NOT NULL,
			poison_type       TEXT NOT NULL,
			params            TEXT NOT NULL,
			train_poisoned    INTEGER NOT NULL,
			test_poisoned     INTEGER NOT NULL,
			created_at        TEXT DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS datasets_root ON datasets(root);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db}, nil
}

// Record appends an entry and returns its id.
func (c *Catalog) Record(e Entry) (int64, error) {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}
	res, err := c.Exec(`
		INSERT INTO datasets (fingerprint, root, poison_type, params, train_poisoned, test_poisoned)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.Root, e.PoisonType, string(params), e.TrainPoisoned, e.TestPoisoned)
	if err != nil {
		return 0, fmt.Errorf("recording dataset: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recent entry for root.
func (c *Catalog) Latest(root string) (*Entry, error) {
	row := c.QueryRow(`
		SELECT id, fingerprint, root, poison_type, params, train_poisoned, test_poisoned, created_at
		FROM datasets WHERE root = ? ORDER BY id DESC LIMIT 1`, root)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, root)
	}
	return e, err
}

// List returns every entry, oldest first.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.Query(`
		SELECT id, fingerprint, root, poison_type, params, train_poisoned, test_poisoned, created_at
		FROM datasets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var params string
	var created sql.NullString
	if err := s.Scan(&e.ID, &e.Fingerprint, &e.Root, &e.PoisonType, &params, &e.TrainPoisoned, &e.TestPoisoned, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
		return nil, fmt.Errorf("decoding params of entry %d: %w", e.ID, err)
	}
	e.CreatedAt = created.String
	return &e, nil
}
