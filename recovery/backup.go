/*
Package recovery implements the crash-safe delete workflow and the
snapshot retention sweep.

PURPOSE:
  Before any destructive delete, the doomed records are replayed into a
  fresh, independently-schemaed snapshot store. Only when replay
  completes is the primary-store delete permitted. Snapshots live in a
  recovery directory, named by creation timestamp, and are pruned by a
  periodic retention sweep.

STATE MACHINE (per delete):
  requested -> snapshot_created -> replayed -> safe_to_delete
  requested -> failed (abort: the primary delete must not run)

ERROR SEPARATION:
  A failure while creating or replaying the snapshot surfaces as a
  BackupError (unwraps to bookkeep.ErrBackupFailed) and blocks the
  delete. A failure of the primary delete itself is reported as-is; the
  snapshot already exists and is never rolled back.
*/
package recovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

// State names one step of the guarded-delete workflow.
type State string

const (
	StateRequested       State = "requested"
	StateSnapshotCreated State = "snapshot_created"
	StateReplayed        State = "replayed"
	StateSafeToDelete    State = "safe_to_delete"
	StateFailed          State = "failed"
)

// snapshotLayout names snapshot files by creation timestamp.
const snapshotLayout = "20060102_150405"

// BackupError reports a failed snapshot creation or replay, carrying
// the state the workflow had reached.
type BackupError struct {
	State State
	Err   error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup aborted at %s: %v", e.State, e.Err)
}

func (e *BackupError) Unwrap() error { return bookkeep.ErrBackupFailed }

// OpenRepository binds a same-kind entity repository to a snapshot
// store at dbPath, returning the repository and a close func. The
// implementation must guarantee a full schema copy exists.
type OpenRepository[E bookkeep.Entity, T bookkeep.Transaction] func(dbPath string) (bookkeep.EntityRepository[E, T], func() error, error)

// OpenTransactionRepository is the transaction-only equivalent.
type OpenTransactionRepository[T bookkeep.Transaction] func(dbPath string) (bookkeep.TransactionRepository[T], func() error, error)

// =============================================================================
// ENTITY BACKUP
// =============================================================================

// EntityBackup snapshots one entity and all its dependent transactions
// before the entity is deleted from the primary store.
type EntityBackup[E bookkeep.Entity, T bookkeep.Transaction] struct {
	Dir    string
	Source bookkeep.EntityRepository[E, T]
	Open   OpenRepository[E, T]
	Logger *zap.Logger
}

// Run replays the entity and its dependents into a fresh snapshot
// store. It returns the snapshot path once the workflow has reached
// safe_to_delete; any failure comes back as a BackupError.
func (b *EntityBackup[E, T]) Run(ctx context.Context, entity E) (string, error) {
	log := logOrNop(b.Logger)
	state := StateRequested

	path, err := newSnapshotPath(b.Dir)
	if err != nil {
		return "", &BackupError{State: state, Err: err}
	}

	repo, closeStore, err := b.Open(path)
	if err != nil {
		return "", &BackupError{State: state, Err: err}
	}
	defer closeStore()
	state = StateSnapshotCreated

	if _, err := repo.Create(ctx, entity); err != nil {
		log.Error("entity replay failed", zap.Error(err))
		return "", &BackupError{State: state, Err: err}
	}

	dependents, err := b.Source.Transactions(ctx, entity)
	if err != nil {
		return "", &BackupError{State: state, Err: err}
	}
	txRepo := repo.TransactionRepository()
	for _, tx := range dependents {
		if _, err := txRepo.Create(ctx, tx); err != nil {
			log.Error("transaction replay failed", zap.Error(err))
			return "", &BackupError{State: state, Err: err}
		}
	}
	state = StateReplayed

	state = StateSafeToDelete
	log.Info("backed up entity and dependents",
		zap.String("snapshot", filepath.Base(path)),
		zap.Int("transactions", len(dependents)),
		zap.String("state", string(state)))
	return path, nil
}

// DeleteEntity is the guarded delete: backup first, and only on
// success touch the primary store. Backup failures and primary-store
// failures remain distinguishable through errors.Is.
func DeleteEntity[E bookkeep.Entity, T bookkeep.Transaction](ctx context.Context, b *EntityBackup[E, T], id int64) (E, error) {
	var zero E

	entity, err := b.Source.Read(ctx, bookkeep.ByID(id))
	if err != nil {
		return zero, err
	}

	if _, err := b.Run(ctx, entity); err != nil {
		return zero, err
	}

	return b.Source.Delete(ctx, id)
}

// =============================================================================
// TRANSACTION BACKUP
// =============================================================================

// TransactionBackup snapshots a set of transactions before deletion.
type TransactionBackup[T bookkeep.Transaction] struct {
	Dir    string
	Source bookkeep.TransactionRepository[T]
	Open   OpenTransactionRepository[T]
	Logger *zap.Logger
}

// Run replays the transactions into a fresh snapshot store.
func (b *TransactionBackup[T]) Run(ctx context.Context, txs []T) (string, error) {
	log := logOrNop(b.Logger)
	state := StateRequested

	path, err := newSnapshotPath(b.Dir)
	if err != nil {
		return "", &BackupError{State: state, Err: err}
	}

	repo, closeStore, err := b.Open(path)
	if err != nil {
		return "", &BackupError{State: state, Err: err}
	}
	defer closeStore()
	state = StateSnapshotCreated

	for _, tx := range txs {
		if _, err := repo.Create(ctx, tx); err != nil {
			log.Error("transaction replay failed", zap.Error(err))
			return "", &BackupError{State: state, Err: err}
		}
	}
	state = StateSafeToDelete

	log.Info("backed up transactions",
		zap.String("snapshot", filepath.Base(path)),
		zap.Int("transactions", len(txs)),
		zap.String("state", string(state)))
	return path, nil
}

// DeleteTransaction is the guarded delete for a single transaction.
func DeleteTransaction[T bookkeep.Transaction](ctx context.Context, b *TransactionBackup[T], id int64) (T, error) {
	var zero T

	tx, err := b.Source.Read(ctx, id)
	if err != nil {
		return zero, err
	}

	if _, err := b.Run(ctx, []T{tx}); err != nil {
		return zero, err
	}

	return b.Source.Delete(ctx, id)
}

// newSnapshotPath reserves a timestamp-named path inside the recovery
// directory, creating the directory when absent.
func newSnapshotPath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recovery directory: %w", err)
	}
	name := time.Now().Format(snapshotLayout) + ".db"
	return filepath.Join(dir, name), nil
}

func logOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
