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

const purchaseColumns = "id, supplier_id, supplier_name, supplier_invoice_code, internal_invoice_number, " +
	"net_amount, vat_percent, goods, utilities, motor_expenses, sundries, miscellaneous, " +
	"payment_method, timestamp, capital_spend"

// PurchaseRepository implements bookkeep.TransactionRepository for
// purchases, including the cost-breakdown invariant on writes.
type PurchaseRepository struct {
	db  *DB
	log *zap.Logger
}

// NewPurchaseRepository binds a purchase repository to the given store.
func NewPurchaseRepository(db *DB, logger *zap.Logger) *PurchaseRepository {
	return &PurchaseRepository{db: db, log: logOrNop(logger)}
}

// Create inserts the purchase, assigning an id unless one is preset.
// The cost-breakdown invariant is checked before anything is written.
func (r *PurchaseRepository) Create(ctx context.Context, p bookkeep.Purchase) (bookkeep.Purchase, error) {
	if err := p.Validate(); err != nil {
		return bookkeep.Purchase{}, err
	}

	if p.ID == 0 {
		res, err := r.db.db.ExecContext(ctx, `
			INSERT INTO purchases (
				supplier_id, supplier_name, supplier_invoice_code, internal_invoice_number, net_amount,
				vat_percent, goods, utilities, motor_expenses, sundries, miscellaneous,
				payment_method, timestamp, capital_spend
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			purchaseArgs(p)...,
		)
		if err != nil {
			return bookkeep.Purchase{}, fmt.Errorf("insert purchase: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return bookkeep.Purchase{}, fmt.Errorf("insert purchase: %w", err)
		}
		p.ID = id
		return p, nil
	}

	_, err := r.db.db.ExecContext(ctx, `
		INSERT INTO purchases (
			id, supplier_id, supplier_name, supplier_invoice_code, internal_invoice_number, net_amount,
			vat_percent, goods, utilities, motor_expenses, sundries, miscellaneous,
			payment_method, timestamp, capital_spend
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{p.ID}, purchaseArgs(p)...)...,
	)
	if err != nil {
		return bookkeep.Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}
	return p, nil
}

// Read returns the purchase by id, or ErrNotFound.
func (r *PurchaseRepository) Read(ctx context.Context, id int64) (bookkeep.Purchase, error) {
	row := r.db.db.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases WHERE id = ?", id)
	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return bookkeep.Purchase{}, bookkeep.ErrNotFound
	}
	if err != nil {
		return bookkeep.Purchase{}, fmt.Errorf("read purchase: %w", err)
	}
	return p, nil
}

// Update is a full-record replace. Since the whole record is rewritten,
// the cost-breakdown invariant is re-validated first.
func (r *PurchaseRepository) Update(ctx context.Context, p bookkeep.Purchase) (bookkeep.Purchase, error) {
	if err := p.Validate(); err != nil {
		return bookkeep.Purchase{}, err
	}

	_, err := r.db.db.ExecContext(ctx, `
		UPDATE purchases SET
			supplier_id = ?, supplier_name = ?, supplier_invoice_code = ?, internal_invoice_number = ?, net_amount = ?,
			vat_percent = ?, goods = ?, utilities = ?, motor_expenses = ?, sundries = ?, miscellaneous = ?,
			payment_method = ?, timestamp = ?, capital_spend = ?
		WHERE id = ?`,
		append(purchaseArgs(p), p.ID)...,
	)
	if err != nil {
		return bookkeep.Purchase{}, fmt.Errorf("update purchase %d: %w", p.ID, err)
	}
	return r.Read(ctx, p.ID)
}

// Delete removes the purchase. A missing id returns ErrNotFound without
// side effects.
func (r *PurchaseRepository) Delete(ctx context.Context, id int64) (bookkeep.Purchase, error) {
	p, err := r.Read(ctx, id)
	if err != nil {
		return bookkeep.Purchase{}, err
	}
	if _, err := r.db.db.ExecContext(ctx, "DELETE FROM purchases WHERE id = ?", id); err != nil {
		return bookkeep.Purchase{}, fmt.Errorf("delete purchase %d: %w", id, err)
	}
	return p, nil
}

// Search applies the filter specification. An empty filter returns the
// same set as All.
func (r *PurchaseRepository) Search(ctx context.Context, filter bookkeep.Filter) ([]bookkeep.Purchase, error) {
	q := newFilterQuery("SELECT " + purchaseColumns + " FROM purchases WHERE 1=1")
	q.substring("supplier_name", filter.Entity)
	q.substring("supplier_invoice_code", filter.SupplierInvoice)
	q.substring("internal_invoice_number", filter.InternalInvoice)
	q.numericRange("net_amount", filter.Net)
	q.numericRange("goods", filter.Goods)
	q.numericRange("utilities", filter.Utilities)
	q.numericRange("motor_expenses", filter.MotorExpenses)
	q.numericRange("sundries", filter.Sundries)
	q.numericRange("miscellaneous", filter.Miscellaneous)
	q.decimalSet("vat_percent", filter.VAT)
	q.stringSet("payment_method", filter.Payment)
	q.timeBound("timestamp", ">=", filter.TimeFrom)
	q.timeBound("timestamp", "<=", filter.TimeTo)
	q.boolEquals("capital_spend", filter.CapitalSpend)

	query, args := q.build()
	r.log.Debug("purchase search", zap.String("query", query))
	return r.query(ctx, query, args...)
}

// SearchByParent returns all purchases referencing the supplier id.
func (r *PurchaseRepository) SearchByParent(ctx context.Context, parentID int64) ([]bookkeep.Purchase, error) {
	return r.query(ctx,
		"SELECT "+purchaseColumns+" FROM purchases WHERE supplier_id = ?", parentID)
}

// All returns every purchase.
func (r *PurchaseRepository) All(ctx context.Context) ([]bookkeep.Purchase, error) {
	return r.query(ctx, "SELECT "+purchaseColumns+" FROM purchases")
}

func (r *PurchaseRepository) query(ctx context.Context, query string, args ...any) ([]bookkeep.Purchase, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []bookkeep.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func purchaseArgs(p bookkeep.Purchase) []any {
	capital := 0
	if p.CapitalSpend {
		capital = 1
	}
	return []any{
		p.SupplierID, p.SupplierName, p.SupplierInvoiceCode, p.InternalInvoiceNumber,
		p.NetAmount.InexactFloat64(), p.VATPercent.InexactFloat64(),
		p.Goods.InexactFloat64(), p.Utilities.InexactFloat64(),
		p.MotorExpenses.InexactFloat64(), p.Sundries.InexactFloat64(),
		p.Miscellaneous.InexactFloat64(),
		p.PaymentMethod, p.Timestamp, capital,
	}
}

func scanPurchase(row rowScanner) (bookkeep.Purchase, error) {
	var (
		p                       bookkeep.Purchase
		net, vat                float64
		goods, utilities, motor float64
		sundries, miscellaneous float64
		capital                 int
	)
	err := row.Scan(
		&p.ID, &p.SupplierID, &p.SupplierName, &p.SupplierInvoiceCode, &p.InternalInvoiceNumber,
		&net, &vat, &goods, &utilities, &motor, &sundries, &miscellaneous,
		&p.PaymentMethod, &p.Timestamp, &capital,
	)
	if err != nil {
		return bookkeep.Purchase{}, err
	}
	p.NetAmount = decimal.NewFromFloat(net)
	p.VATPercent = decimal.NewFromFloat(vat)
	p.Goods = decimal.NewFromFloat(goods)
	p.Utilities = decimal.NewFromFloat(utilities)
	p.MotorExpenses = decimal.NewFromFloat(motor)
	p.Sundries = decimal.NewFromFloat(sundries)
	p.Miscellaneous = decimal.NewFromFloat(miscellaneous)
	p.CapitalSpend = capital != 0
	return p, nil
}
