/*
repository.go - Persistence interfaces for entities and transactions

PURPOSE:
  Defines the contract between the domain and the storage layer.
  Repositories are parameterized at compile time over the concrete
  entity/transaction pair instead of branching on a runtime type name.

CASCADE CONTRACT:
  Entity Update renames the parent AND rewrites the denormalized name on
  every dependent transaction. Entity Delete removes the parent AND all
  dependents. Both run as one atomic unit in the SQLite implementation.

BACKUP CONTRACT:
  Delete itself performs no backup. Callers route destructive deletes
  through the recovery package, which replays the doomed records into a
  snapshot store before permitting the primary delete.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
*/
package bookkeep

import "context"

// EntityRef identifies an entity by exactly one of id or name.
type EntityRef struct {
	ID   int64
	Name string
}

// ByID builds a reference by store-assigned id.
func ByID(id int64) EntityRef { return EntityRef{ID: id} }

// ByName builds a reference by unique name.
func ByName(name string) EntityRef { return EntityRef{Name: name} }

// Validate rejects references that set neither or both fields.
func (r EntityRef) Validate() error {
	if (r.ID != 0) == (r.Name != "") {
		return Validationf("exactly one of id or name is required")
	}
	return nil
}

// EntityRepository is the CRUD + search contract for parent records.
type EntityRepository[E Entity, T Transaction] interface {
	// Create inserts the entity. A zero id is assigned by the store; a
	// preset id (recovery replay, seeding) is honored verbatim. A name
	// collision surfaces as a ConflictError.
	Create(ctx context.Context, entity E) (E, error)

	// Read returns the entity matching the reference, or ErrNotFound.
	Read(ctx context.Context, ref EntityRef) (E, error)

	// Update renames the entity and propagates the new name to every
	// dependent transaction's denormalized name field, then returns the
	// freshly read entity.
	Update(ctx context.Context, entity E) (E, error)

	// Delete removes the entity and all its dependent transactions.
	// A missing id returns ErrNotFound without side effects.
	Delete(ctx context.Context, id int64) (E, error)

	// Search matches case-insensitive name substrings.
	Search(ctx context.Context, nameQuery string) ([]E, error)

	// All lists every entity. Order is not guaranteed.
	All(ctx context.Context) ([]E, error)

	// TransactionRepository returns the dependent-transaction repository
	// bound to the same store. The recovery subsystem uses this to fetch
	// and replay dependents.
	TransactionRepository() TransactionRepository[T]

	// Transactions returns all transactions whose parent reference
	// equals the entity's id.
	Transactions(ctx context.Context, entity E) ([]T, error)
}

// TransactionRepository is the CRUD + search contract for financial
// records. Transactions have no dependents, so nothing cascades.
type TransactionRepository[T Transaction] interface {
	Create(ctx context.Context, tx T) (T, error)
	Read(ctx context.Context, id int64) (T, error)

	// Update is a full-record replace. Field-level patch semantics are a
	// caller concern; invariants (the purchase component sum) are
	// re-validated here.
	Update(ctx context.Context, tx T) (T, error)

	Delete(ctx context.Context, id int64) (T, error)

	// Search applies a filter specification. An empty filter returns the
	// same set as All.
	Search(ctx context.Context, filter Filter) ([]T, error)

	// SearchByParent returns transactions scoped by the parent's id.
	SearchByParent(ctx context.Context, parentID int64) ([]T, error)

	All(ctx context.Context) ([]T, error)
}
