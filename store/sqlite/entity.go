/*
entity.go - Generic repository over parent records

PURPOSE:
  One EntityRepository implementation serves both customers and
  suppliers. The concrete pair is bound at compile time through an
  entityKind descriptor (table names, denormalized child column, and
  constructors), so there is no runtime branching on a type name.

CASCADES:
  Update and Delete propagate to the dependent transaction table inside
  a single SQL transaction. Delete performs no backup itself; the
  recovery package owns the backup-before-delete workflow.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

// entityKind describes one parent table and its dependent table.
type entityKind[E bookkeep.Entity, T bookkeep.Transaction] struct {
	table        string // parent table, e.g. "customers"
	childTable   string // dependent table, e.g. "sales"
	parentColumn string // child column referencing the parent id
	nameColumn   string // child column carrying the denormalized name
	wrap         func(id int64, name string) E
	transactions func(db *DB, logger *zap.Logger) bookkeep.TransactionRepository[T]
}

// EntityRepository implements bookkeep.EntityRepository for one kind.
type EntityRepository[E bookkeep.Entity, T bookkeep.Transaction] struct {
	db   *DB
	kind entityKind[E, T]
	log  *zap.Logger
}

// NewCustomerRepository binds an entity repository to the customers
// table with sales as dependents.
func NewCustomerRepository(db *DB, logger *zap.Logger) *EntityRepository[bookkeep.Customer, bookkeep.Sale] {
	return &EntityRepository[bookkeep.Customer, bookkeep.Sale]{
		db:  db,
		log: logOrNop(logger),
		kind: entityKind[bookkeep.Customer, bookkeep.Sale]{
			table:        "customers",
			childTable:   "sales",
			parentColumn: "customer_id",
			nameColumn:   "customer_name",
			wrap: func(id int64, name string) bookkeep.Customer {
				return bookkeep.Customer{ID: id, Name: name}
			},
			transactions: func(db *DB, logger *zap.Logger) bookkeep.TransactionRepository[bookkeep.Sale] {
				return NewSaleRepository(db, logger)
			},
		},
	}
}

// NewSupplierRepository binds an entity repository to the suppliers
// table with purchases as dependents.
func NewSupplierRepository(db *DB, logger *zap.Logger) *EntityRepository[bookkeep.Supplier, bookkeep.Purchase] {
	return &EntityRepository[bookkeep.Supplier, bookkeep.Purchase]{
		db:  db,
		log: logOrNop(logger),
		kind: entityKind[bookkeep.Supplier, bookkeep.Purchase]{
			table:        "suppliers",
			childTable:   "purchases",
			parentColumn: "supplier_id",
			nameColumn:   "supplier_name",
			wrap: func(id int64, name string) bookkeep.Supplier {
				return bookkeep.Supplier{ID: id, Name: name}
			},
			transactions: func(db *DB, logger *zap.Logger) bookkeep.TransactionRepository[bookkeep.Purchase] {
				return NewPurchaseRepository(db, logger)
			},
		},
	}
}

// Create inserts the entity, assigning an id unless one is preset.
func (r *EntityRepository[E, T]) Create(ctx context.Context, entity E) (E, error) {
	var zero E

	if entity.EntityID() == 0 {
		res, err := r.db.db.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", r.kind.table),
			entity.EntityName(),
		)
		if err != nil {
			return zero, r.writeError("insert", entity.EntityName(), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return zero, fmt.Errorf("insert %s: %w", r.kind.table, err)
		}
		return r.kind.wrap(id, entity.EntityName()), nil
	}

	_, err := r.db.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, name) VALUES (?, ?)", r.kind.table),
		entity.EntityID(), entity.EntityName(),
	)
	if err != nil {
		return zero, r.writeError("insert", entity.EntityName(), err)
	}
	return entity, nil
}

// Read returns the entity matching exactly one of id or name.
func (r *EntityRepository[E, T]) Read(ctx context.Context, ref bookkeep.EntityRef) (E, error) {
	var zero E
	if err := ref.Validate(); err != nil {
		return zero, err
	}

	query := fmt.Sprintf("SELECT id, name FROM %s WHERE id = ?", r.kind.table)
	arg := any(ref.ID)
	if ref.Name != "" {
		query = fmt.Sprintf("SELECT id, name FROM %s WHERE name = ?", r.kind.table)
		arg = ref.Name
	}

	var (
		id   int64
		name string
	)
	err := r.db.db.QueryRowContext(ctx, query, arg).Scan(&id, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, bookkeep.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", r.kind.table, err)
	}
	return r.kind.wrap(id, name), nil
}

// Update renames the entity and rewrites the denormalized name on every
// dependent row, in one SQL transaction.
func (r *EntityRepository[E, T]) Update(ctx context.Context, entity E) (E, error) {
	var zero E

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin rename of %s: %w", r.kind.table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET name = ? WHERE id = ?", r.kind.table),
		entity.EntityName(), entity.EntityID(),
	); err != nil {
		return zero, r.writeError("rename", entity.EntityName(), err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
			r.kind.childTable, r.kind.nameColumn, r.kind.parentColumn),
		entity.EntityName(), entity.EntityID(),
	); err != nil {
		return zero, fmt.Errorf("propagate rename to %s: %w", r.kind.childTable, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit rename of %s: %w", r.kind.table, err)
	}

	return r.Read(ctx, bookkeep.ByID(entity.EntityID()))
}

// Delete removes the entity and all its dependent transactions in one
// SQL transaction. A missing id returns ErrNotFound without side
// effects. Callers are responsible for the recovery backup; none
// happens here.
func (r *EntityRepository[E, T]) Delete(ctx context.Context, id int64) (E, error) {
	var zero E

	entity, err := r.Read(ctx, bookkeep.ByID(id))
	if err != nil {
		return zero, err
	}

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin delete of %s %d: %w", r.kind.table, id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.kind.table), id,
	); err != nil {
		return zero, fmt.Errorf("delete %s %d: %w", r.kind.table, id, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.kind.childTable, r.kind.parentColumn), id,
	); err != nil {
		return zero, fmt.Errorf("cascade delete to %s: %w", r.kind.childTable, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit delete of %s %d: %w", r.kind.table, id, err)
	}

	r.log.Info("deleted entity with dependents",
		zap.String("table", r.kind.table), zap.Int64("id", id))
	return entity, nil
}

// Search matches case-insensitive name substrings. An empty query is
// the caller's cue to use All instead.
func (r *EntityRepository[E, T]) Search(ctx context.Context, nameQuery string) ([]E, error) {
	return r.list(ctx,
		fmt.Sprintf("SELECT id, name FROM %s WHERE LOWER(name) LIKE ?", r.kind.table),
		"%"+strings.ToLower(nameQuery)+"%",
	)
}

// All returns every entity of this kind.
func (r *EntityRepository[E, T]) All(ctx context.Context) ([]E, error) {
	return r.list(ctx, fmt.Sprintf("SELECT id, name FROM %s", r.kind.table))
}

// TransactionRepository returns the dependent repository bound to the
// same store.
func (r *EntityRepository[E, T]) TransactionRepository() bookkeep.TransactionRepository[T] {
	return r.kind.transactions(r.db, r.log)
}

// Transactions returns all dependents referencing the entity's id.
func (r *EntityRepository[E, T]) Transactions(ctx context.Context, entity E) ([]T, error) {
	return r.TransactionRepository().SearchByParent(ctx, entity.EntityID())
}

func (r *EntityRepository[E, T]) list(ctx context.Context, query string, args ...any) ([]E, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.kind.table, err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.kind.table, err)
		}
		out = append(out, r.kind.wrap(id, name))
	}
	return out, rows.Err()
}

func (r *EntityRepository[E, T]) writeError(op, name string, err error) error {
	if isUniqueConstraintError(err) {
		return &bookkeep.ConflictError{Table: r.kind.table, Value: name}
	}
	return fmt.Errorf("%s %s: %w", op, r.kind.table, err)
}
