package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bookkeeppr/bookkeep"
	"github.com/ledgerline/bookkeeppr/store/sqlite"
)

func seedSales(t *testing.T, db *sqlite.DB) *sqlite.SaleRepository {
	t.Helper()
	ctx := context.Background()
	customers := sqlite.NewCustomerRepository(db, nil)
	sales := sqlite.NewSaleRepository(db, nil)

	acme, err := customers.Create(ctx, bookkeep.Customer{Name: "ACME Ltd"})
	require.NoError(t, err)
	globex, err := customers.Create(ctx, bookkeep.Customer{Name: "Globex"})
	require.NoError(t, err)

	rows := []bookkeep.Sale{
		bookkeep.NewSale(0, acme.ID, acme.Name, "INV-001", decimal.NewFromFloat(100), decimal.NewFromFloat(20), "bacs", "2024-01-15 09:00:00"),
		bookkeep.NewSale(0, acme.ID, acme.Name, "INV-002", decimal.NewFromFloat(250.50), decimal.NewFromFloat(20), "cash", "2024-03-20 14:30:00"),
		bookkeep.NewSale(0, globex.ID, globex.Name, "INV-003", decimal.NewFromFloat(75), decimal.NewFromFloat(5), "card", "2024-06-10 11:15:00"),
	}
	for _, s := range rows {
		_, err := sales.Create(ctx, s)
		require.NoError(t, err)
	}
	return sales
}

func TestSaleRepository_CreateReadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	customers := sqlite.NewCustomerRepository(db, nil)
	sales := sqlite.NewSaleRepository(db, nil)
	ctx := context.Background()

	customer, err := customers.Create(ctx, bookkeep.Customer{Name: "ACME Ltd"})
	require.NoError(t, err)

	created, err := sales.Create(ctx, bookkeep.NewSale(
		0, customer.ID, customer.Name, "INV-001",
		decimal.NewFromFloat(123.45), decimal.NewFromFloat(20),
		"bacs", "2024-07-01 10:00:00",
	))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	read, err := sales.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", read.InvoiceNumber)
	assert.True(t, read.NetAmount.Equal(decimal.NewFromFloat(123.45)))
	assert.Equal(t, "2024-07-01 10:00:00", read.Timestamp)
}

func TestSaleRepository_CreateHonorsPresetID(t *testing.T) {
	db := openTestDB(t)
	sales := sqlite.NewSaleRepository(db, nil)
	ctx := context.Background()

	created, err := sales.Create(ctx, bookkeep.NewSale(
		77, 1, "ACME Ltd", "INV-001",
		decimal.NewFromFloat(10), decimal.NewFromFloat(0),
		"cash", "2024-07-01 10:00:00",
	))
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.ID)

	read, err := sales.Read(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", read.InvoiceNumber)
}

func TestSaleRepository_UpdateReplacesRecord(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)
	ctx := context.Background()

	all, err := sales.All(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	sale := all[0]
	sale.InvoiceNumber = "INV-001-R"
	sale.NetAmount = decimal.NewFromFloat(999.99)

	updated, err := sales.Update(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, "INV-001-R", updated.InvoiceNumber)
	assert.True(t, updated.NetAmount.Equal(decimal.NewFromFloat(999.99)))
}

func TestSaleRepository_DeleteMissing(t *testing.T) {
	db := openTestDB(t)
	sales := sqlite.NewSaleRepository(db, nil)

	_, err := sales.Delete(context.Background(), 12345)
	assert.True(t, bookkeep.IsNotFound(err))
}

func TestSaleRepository_SearchEmptyFilterMatchesAll(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)
	ctx := context.Background()

	all, err := sales.All(ctx)
	require.NoError(t, err)
	filtered, err := sales.Search(ctx, bookkeep.Filter{})
	require.NoError(t, err)
	assert.Equal(t, len(all), len(filtered))
}

func TestSaleRepository_SearchByCustomerSubstring(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)

	got, err := sales.Search(context.Background(), bookkeep.Filter{Entity: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, "ACME Ltd", s.CustomerName)
	}
}

func TestSaleRepository_SearchNetRange(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)
	ctx := context.Background()

	min := decimal.NewFromFloat(80)
	got, err := sales.Search(ctx, bookkeep.Filter{Net: bookkeep.Range{Min: &min}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	eq := decimal.NewFromFloat(75)
	got, err = sales.Search(ctx, bookkeep.Filter{Net: bookkeep.Range{Eq: &eq, Min: &min}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-003", got[0].InvoiceNumber)
}

func TestSaleRepository_SearchVATAndPaymentSets(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)
	ctx := context.Background()

	got, err := sales.Search(ctx, bookkeep.Filter{
		VAT: []decimal.Decimal{decimal.NewFromFloat(5)},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-003", got[0].InvoiceNumber)

	got, err = sales.Search(ctx, bookkeep.Filter{
		Payment: []string{"cash", "card"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSaleRepository_SearchTimeWindow(t *testing.T) {
	db := openTestDB(t)
	sales := seedSales(t, db)
	ctx := context.Background()

	got, err := sales.Search(ctx, bookkeep.Filter{
		TimeFrom: "2024-02-01",
		TimeTo:   "2024-05-31",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INV-002", got[0].InvoiceNumber)

	// An unparseable bound is dropped rather than failing the search.
	got, err = sales.Search(ctx, bookkeep.Filter{
		TimeFrom: "garbage",
		TimeTo:   "2024-05-31",
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
