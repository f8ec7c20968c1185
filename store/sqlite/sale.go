package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

const saleColumns = "id, customer_id, customer_name, invoice_number, net_amount, vat_percent, payment_method, timestamp"

// SaleRepository implements bookkeep.TransactionRepository for sales.
type SaleRepository struct {
	db  *DB
	log *zap.Logger
}

// NewSaleRepository binds a sale repository to the given store.
func NewSaleRepository(db *DB, logger *zap.Logger) *SaleRepository {
	return &SaleRepository{db: db, log: logOrNop(logger)}
}

// Create inserts the sale, assigning an id unless one is preset.
func (r *SaleRepository) Create(ctx context.Context, sale bookkeep.Sale) (bookkeep.Sale, error) {
	if sale.ID == 0 {
		res, err := r.db.db.ExecContext(ctx, `
			INSERT INTO sales (customer_id, customer_name, invoice_number, net_amount, vat_percent, payment_method, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sale.CustomerID, sale.CustomerName, sale.InvoiceNumber,
			sale.NetAmount.InexactFloat64(), sale.VATPercent.InexactFloat64(),
			sale.PaymentMethod, sale.Timestamp,
		)
		if err != nil {
			return bookkeep.Sale{}, fmt.Errorf("insert sale: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return bookkeep.Sale{}, fmt.Errorf("insert sale: %w", err)
		}
		sale.ID = id
		return sale, nil
	}

	_, err := r.db.db.ExecContext(ctx, `
		INSERT INTO sales (id, customer_id, customer_name, invoice_number, net_amount, vat_percent, payment_method, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.CustomerID, sale.CustomerName, sale.InvoiceNumber,
		sale.NetAmount.InexactFloat64(), sale.VATPercent.InexactFloat64(),
		sale.PaymentMethod, sale.Timestamp,
	)
	if err != nil {
		return bookkeep.Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return sale, nil
}

// Read returns the sale by id, or ErrNotFound.
func (r *SaleRepository) Read(ctx context.Context, id int64) (bookkeep.Sale, error) {
	row := r.db.db.QueryRowContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE id = ?", id)
	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return bookkeep.Sale{}, bookkeep.ErrNotFound
	}
	if err != nil {
		return bookkeep.Sale{}, fmt.Errorf("read sale: %w", err)
	}
	return sale, nil
}

// Update is a full-record replace, then a fresh read.
func (r *SaleRepository) Update(ctx context.Context, sale bookkeep.Sale) (bookkeep.Sale, error) {
	_, err := r.db.db.ExecContext(ctx, `
		UPDATE sales SET
			customer_id = ?, customer_name = ?, invoice_number = ?, net_amount = ?,
			vat_percent = ?, payment_method = ?, timestamp = ?
		WHERE id = ?`,
		sale.CustomerID, sale.CustomerName, sale.InvoiceNumber,
		sale.NetAmount.InexactFloat64(), sale.VATPercent.InexactFloat64(),
		sale.PaymentMethod, sale.Timestamp, sale.ID,
	)
	if err != nil {
		return bookkeep.Sale{}, fmt.Errorf("update sale %d: %w", sale.ID, err)
	}
	return r.Read(ctx, sale.ID)
}

// Delete removes the sale. A missing id returns ErrNotFound without
// side effects. Callers route destructive deletes through recovery.
func (r *SaleRepository) Delete(ctx context.Context, id int64) (bookkeep.Sale, error) {
	sale, err := r.Read(ctx, id)
	if err != nil {
		return bookkeep.Sale{}, err
	}
	if _, err := r.db.db.ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id); err != nil {
		return bookkeep.Sale{}, fmt.Errorf("delete sale %d: %w", id, err)
	}
	return sale, nil
}

// Search applies the filter specification. An empty filter returns the
// same set as All.
func (r *SaleRepository) Search(ctx context.Context, filter bookkeep.Filter) ([]bookkeep.Sale, error) {
	q := newFilterQuery("SELECT " + saleColumns + " FROM sales WHERE 1=1")
	q.substring("customer_name", filter.Entity)
	q.substring("invoice_number", filter.Invoice)
	q.numericRange("net_amount", filter.Net)
	q.decimalSet("vat_percent", filter.VAT)
	q.stringSet("payment_method", filter.Payment)
	q.timeBound("timestamp", ">=", filter.TimeFrom)
	q.timeBound("timestamp", "<=", filter.TimeTo)

	query, args := q.build()
	r.log.Debug("sale search", zap.String("query", query))
	return r.query(ctx, query, args...)
}

// SearchByParent returns all sales referencing the customer id.
func (r *SaleRepository) SearchByParent(ctx context.Context, parentID int64) ([]bookkeep.Sale, error) {
	return r.query(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE customer_id = ?", parentID)
}

// All returns every sale.
func (r *SaleRepository) All(ctx context.Context) ([]bookkeep.Sale, error) {
	return r.query(ctx, "SELECT "+saleColumns+" FROM sales")
}

func (r *SaleRepository) query(ctx context.Context, query string, args ...any) ([]bookkeep.Sale, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []bookkeep.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (bookkeep.Sale, error) {
	var (
		sale bookkeep.Sale
		net  float64
		vat  float64
	)
	err := row.Scan(
		&sale.ID, &sale.CustomerID, &sale.CustomerName, &sale.InvoiceNumber,
		&net, &vat, &sale.PaymentMethod, &sale.Timestamp,
	)
	if err != nil {
		return bookkeep.Sale{}, err
	}
	sale.NetAmount = decimal.NewFromFloat(net)
	sale.VATPercent = decimal.NewFromFloat(vat)
	return sale, nil
}
