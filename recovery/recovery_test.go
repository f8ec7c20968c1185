package recovery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bookkeeppr/bookkeep"
	"github.com/ledgerline/bookkeeppr/recovery"
	"github.com/ledgerline/bookkeeppr/store/sqlite"
)

func openCustomerSnapshot(path string) (bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale], func() error, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewCustomerRepository(db, nil), db.Close, nil
}

func openSaleSnapshot(path string) (bookkeep.TransactionRepository[bookkeep.Sale], func() error, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewSaleRepository(db, nil), db.Close, nil
}

func seedCustomer(t *testing.T, db *sqlite.DB) (bookkeep.Customer, []bookkeep.Sale) {
	t.Helper()
	ctx := context.Background()
	customers := sqlite.NewCustomerRepository(db, nil)
	sales := sqlite.NewSaleRepository(db, nil)

	customer, err := customers.Create(ctx, bookkeep.Customer{Name: "ACME Ltd"})
	require.NoError(t, err)

	var deps []bookkeep.Sale
	for i, invoice := range []string{"INV-1", "INV-2"} {
		sale, err := sales.Create(ctx, bookkeep.NewSale(
			0, customer.ID, customer.Name, invoice,
			decimal.NewFromInt(int64(100*(i+1))), decimal.NewFromInt(20),
			"bacs", "2024-07-01 10:00:00",
		))
		require.NoError(t, err)
		deps = append(deps, sale)
	}
	return customer, deps
}

func snapshotFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.db"))
	require.NoError(t, err)
	return matches
}

func TestDeleteEntity_SnapshotsThenDeletes(t *testing.T) {
	primary, err := sqlite.Open(filepath.Join(t.TempDir(), "primary.db"))
	require.NoError(t, err)
	defer primary.Close()

	customer, deps := seedCustomer(t, primary)
	recoveryDir := t.TempDir()

	backup := &recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]{
		Dir:    recoveryDir,
		Source: sqlite.NewCustomerRepository(primary, nil),
		Open:   openCustomerSnapshot,
	}

	ctx := context.Background()
	deleted, err := recovery.DeleteEntity(ctx, backup, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer, deleted)

	// Primary store no longer has the entity or its dependents.
	_, err = backup.Source.Read(ctx, bookkeep.ByID(customer.ID))
	assert.True(t, bookkeep.IsNotFound(err))
	remaining, err := sqlite.NewSaleRepository(primary, nil).SearchByParent(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Exactly one snapshot exists and replays everything verbatim.
	files := snapshotFiles(t, recoveryDir)
	require.Len(t, files, 1)

	snapRepo, closeSnap, err := openCustomerSnapshot(files[0])
	require.NoError(t, err)
	defer closeSnap()

	replayed, err := snapRepo.Read(ctx, bookkeep.ByID(customer.ID))
	require.NoError(t, err)
	assert.Equal(t, customer, replayed)

	replayedDeps, err := snapRepo.Transactions(ctx, replayed)
	require.NoError(t, err)
	require.Len(t, replayedDeps, len(deps))
	for i, sale := range replayedDeps {
		assert.Equal(t, deps[i].ID, sale.ID)
		assert.Equal(t, deps[i].InvoiceNumber, sale.InvoiceNumber)
		assert.True(t, deps[i].NetAmount.Equal(sale.NetAmount))
		assert.Equal(t, deps[i].Timestamp, sale.Timestamp)
	}
}

func TestDeleteEntity_BackupFailureBlocksDelete(t *testing.T) {
	primary, err := sqlite.Open(filepath.Join(t.TempDir(), "primary.db"))
	require.NoError(t, err)
	defer primary.Close()

	customer, _ := seedCustomer(t, primary)

	backup := &recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]{
		Dir:    t.TempDir(),
		Source: sqlite.NewCustomerRepository(primary, nil),
		Open: func(string) (bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale], func() error, error) {
			return nil, nil, errors.New("disk full")
		},
	}

	ctx := context.Background()
	_, err = recovery.DeleteEntity(ctx, backup, customer.ID)
	require.Error(t, err)
	assert.True(t, bookkeep.IsBackupFailure(err))

	var backupErr *recovery.BackupError
	require.True(t, errors.As(err, &backupErr))
	assert.Equal(t, recovery.StateRequested, backupErr.State)

	// The primary store is untouched.
	still, err := backup.Source.Read(ctx, bookkeep.ByID(customer.ID))
	require.NoError(t, err)
	assert.Equal(t, customer, still)
}

// failingSnapshot rejects every replay write.
type failingSnapshot struct {
	bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale]
}

func (failingSnapshot) Create(context.Context, bookkeep.Customer) (bookkeep.Customer, error) {
	return bookkeep.Customer{}, errors.New("replay write rejected")
}

func TestDeleteEntity_ReplayFailureBlocksDelete(t *testing.T) {
	primary, err := sqlite.Open(filepath.Join(t.TempDir(), "primary.db"))
	require.NoError(t, err)
	defer primary.Close()

	customer, deps := seedCustomer(t, primary)

	backup := &recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]{
		Dir:    t.TempDir(),
		Source: sqlite.NewCustomerRepository(primary, nil),
		Open: func(string) (bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale], func() error, error) {
			return failingSnapshot{}, func() error { return nil }, nil
		},
	}

	ctx := context.Background()
	_, err = recovery.DeleteEntity(ctx, backup, customer.ID)
	require.Error(t, err)
	assert.True(t, bookkeep.IsBackupFailure(err))

	var backupErr *recovery.BackupError
	require.True(t, errors.As(err, &backupErr))
	assert.Equal(t, recovery.StateSnapshotCreated, backupErr.State)

	// Entity and dependents are all still present.
	still, err := backup.Source.Read(ctx, bookkeep.ByID(customer.ID))
	require.NoError(t, err)
	assert.Equal(t, customer, still)
	remaining, err := sqlite.NewSaleRepository(primary, nil).SearchByParent(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, len(deps))
}

func TestDeleteEntity_MissingEntityTakesNoSnapshot(t *testing.T) {
	primary, err := sqlite.Open(filepath.Join(t.TempDir(), "primary.db"))
	require.NoError(t, err)
	defer primary.Close()

	recoveryDir := t.TempDir()
	backup := &recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]{
		Dir:    recoveryDir,
		Source: sqlite.NewCustomerRepository(primary, nil),
		Open:   openCustomerSnapshot,
	}

	_, err = recovery.DeleteEntity(context.Background(), backup, 999)
	assert.True(t, bookkeep.IsNotFound(err))
	assert.Empty(t, snapshotFiles(t, recoveryDir))
}

func TestDeleteTransaction_SnapshotsThenDeletes(t *testing.T) {
	primary, err := sqlite.Open(filepath.Join(t.TempDir(), "primary.db"))
	require.NoError(t, err)
	defer primary.Close()

	_, deps := seedCustomer(t, primary)
	doomed := deps[0]
	recoveryDir := t.TempDir()

	backup := &recovery.TransactionBackup[bookkeep.Sale]{
		Dir:    recoveryDir,
		Source: sqlite.NewSaleRepository(primary, nil),
		Open:   openSaleSnapshot,
	}

	ctx := context.Background()
	deleted, err := recovery.DeleteTransaction(ctx, backup, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, doomed.InvoiceNumber, deleted.InvoiceNumber)

	_, err = backup.Source.Read(ctx, doomed.ID)
	assert.True(t, bookkeep.IsNotFound(err))

	files := snapshotFiles(t, recoveryDir)
	require.Len(t, files, 1)

	snapRepo, closeSnap, err := openSaleSnapshot(files[0])
	require.NoError(t, err)
	defer closeSnap()

	replayed, err := snapRepo.Read(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, doomed.InvoiceNumber, replayed.InvoiceNumber)
	assert.True(t, doomed.NetAmount.Equal(replayed.NetAmount))
}

func TestSweep_DeletesOnlyExpiredSnapshots(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "20240101_120000.db")
	fresh := filepath.Join(dir, time.Now().Format("20060102_150405")+".db")
	unrelated := filepath.Join(dir, "notes.db")
	nonDB := filepath.Join(dir, "20240101_120000.txt")

	for _, path := range []string{old, fresh, unrelated, nonDB} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	// Expired snapshots are identified by file age, not name alone.
	stale := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(old, stale, stale))
	require.NoError(t, os.Chtimes(unrelated, stale, stale))
	require.NoError(t, os.Chtimes(nonDB, stale, stale))

	deleted, err := recovery.Sweep(dir, 30, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, nonDB)
}

func TestSweep_KeepsRecentlyTouchedSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240101_120000.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	deleted, err := recovery.Sweep(dir, 30, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.FileExists(t, path)
}

func TestSweep_MissingDirectoryIsNotAnError(t *testing.T) {
	deleted, err := recovery.Sweep(filepath.Join(t.TempDir(), "absent"), 30, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
