/*
Package sqlite provides the SQLite-backed implementation of the
bookkeeping repositories.

PURPOSE:
  Implements bookkeep.EntityRepository and bookkeep.TransactionRepository
  for the four tables: customers, suppliers, sales, purchases.

SCHEMA:
  Auto-migrated on Open(). Entity names carry a UNIQUE constraint;
  violations surface as bookkeep.ConflictError, not a crash. Referential
  integrity between parents and transactions is maintained procedurally
  by the repositories (rename and delete cascades), not by foreign keys.

CASCADES:
  Rename-cascade and delete-cascade each run inside one SQL transaction,
  so a crash mid-propagation cannot leave an entity renamed while a
  dependent row still carries the old denormalized name.

WAL MODE:
  Opened with WAL journaling and a single pooled connection. The store
  is single-process, single-writer; SQLite serializes what little
  concurrency exists.

USAGE:
  db, err := sqlite.Open("./data/bookkeeppr.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

  customers := sqlite.NewCustomerRepository(db, logger)
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB wraps the underlying connection handle shared by the repositories
// bound to one store file.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) a store at the given path and guarantees the
// schema exists before first use. Use ":memory:" for an in-memory store.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer, one connection. Also keeps ":memory:" stores coherent,
	// since each new connection would otherwise get its own database.
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		customer_name TEXT NOT NULL,
		invoice_number TEXT NOT NULL,
		net_amount NUMERIC NOT NULL,
		vat_percent NUMERIC NOT NULL,
		payment_method TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_customer
		ON sales(customer_id);
	CREATE INDEX IF NOT EXISTS idx_sales_timestamp
		ON sales(timestamp);

	CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		supplier_id INTEGER NOT NULL,
		supplier_name TEXT NOT NULL,
		supplier_invoice_code TEXT NOT NULL,
		internal_invoice_number TEXT NOT NULL,
		net_amount NUMERIC NOT NULL,
		vat_percent NUMERIC NOT NULL,
		goods NUMERIC NOT NULL DEFAULT 0,
		utilities NUMERIC NOT NULL DEFAULT 0,
		motor_expenses NUMERIC NOT NULL DEFAULT 0,
		sundries NUMERIC NOT NULL DEFAULT 0,
		miscellaneous NUMERIC NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		capital_spend INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_supplier
		ON purchases(supplier_id);
	CREATE INDEX IF NOT EXISTS idx_purchases_timestamp
		ON purchases(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Helper functions

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func logOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
