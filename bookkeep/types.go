/*
types.go - Core domain records

PURPOSE:
  Defines the parent records (Customer, Supplier) and their dependent
  financial records (Sale, Purchase). Parents own transactions 1:N by id;
  each transaction also carries a denormalized copy of the parent's name
  for fast listing. Keeping that copy in sync on rename is the repository
  layer's cascade obligation.

IDENTITY:
  Records are created with a zero ID and assigned one by the store on
  insert. Recovery replay and seeding pass explicit ids, which the
  repositories honor verbatim.

MONEY:
  Amounts use shopspring/decimal so the purchase cost-breakdown invariant
  can be checked with exact 2-dp arithmetic instead of float comparison.
*/
package bookkeep

import "github.com/shopspring/decimal"

// Entity is a named parent record that owns transactions.
type Entity interface {
	EntityID() int64
	EntityName() string
}

// Transaction is a financial record referencing exactly one entity.
type Transaction interface {
	TransactionID() int64
	ParentID() int64
}

// =============================================================================
// ENTITIES
// =============================================================================

// Customer is the parent of sales. Name is unique within its table.
type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c Customer) EntityID() int64    { return c.ID }
func (c Customer) EntityName() string { return c.Name }

// Supplier is the parent of purchases. Name is unique within its table.
type Supplier struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s Supplier) EntityID() int64    { return s.ID }
func (s Supplier) EntityName() string { return s.Name }

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Sale records a single invoice issued to a customer.
type Sale struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	InvoiceNumber string          `json:"invoice_number"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	VATPercent    decimal.Decimal `json:"vat_percent"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     string          `json:"timestamp"`
}

func (s Sale) TransactionID() int64 { return s.ID }
func (s Sale) ParentID() int64      { return s.CustomerID }

// NewSale builds a Sale with a canonical timestamp. An empty timestamp
// defaults to now; malformed explicit input is dropped.
func NewSale(id, customerID int64, customerName, invoiceNumber string,
	netAmount, vatPercent decimal.Decimal, paymentMethod, timestamp string) Sale {
	return Sale{
		ID:            id,
		CustomerID:    customerID,
		CustomerName:  customerName,
		InvoiceNumber: invoiceNumber,
		NetAmount:     netAmount,
		VATPercent:    vatPercent,
		PaymentMethod: paymentMethod,
		Timestamp:     TimestampOrNow(timestamp),
	}
}

// Purchase records a single supplier invoice with its cost breakdown.
type Purchase struct {
	ID                    int64           `json:"id"`
	SupplierID            int64           `json:"supplier_id"`
	SupplierName          string          `json:"supplier_name"`
	SupplierInvoiceCode   string          `json:"supplier_invoice_code"`
	InternalInvoiceNumber string          `json:"internal_invoice_number"`
	NetAmount             decimal.Decimal `json:"net_amount"`
	VATPercent            decimal.Decimal `json:"vat_percent"`
	Goods                 decimal.Decimal `json:"goods"`
	Utilities             decimal.Decimal `json:"utilities"`
	MotorExpenses         decimal.Decimal `json:"motor_expenses"`
	Sundries              decimal.Decimal `json:"sundries"`
	Miscellaneous         decimal.Decimal `json:"miscellaneous"`
	PaymentMethod         string          `json:"payment_method"`
	Timestamp             string          `json:"timestamp"`
	CapitalSpend          bool            `json:"capital_spend"`
}

func (p Purchase) TransactionID() int64 { return p.ID }
func (p Purchase) ParentID() int64      { return p.SupplierID }

// ComponentSum returns the sum of the five cost-breakdown components.
func (p Purchase) ComponentSum() decimal.Decimal {
	return p.Goods.Add(p.Utilities).Add(p.MotorExpenses).Add(p.Sundries).Add(p.Miscellaneous)
}

// Validate enforces the cost-breakdown invariant: the net amount must
// equal the component sum rounded to 2 decimal places. Repositories
// re-check this on full-record update.
func (p Purchase) Validate() error {
	sum := p.ComponentSum().Round(2)
	if !p.NetAmount.Equal(sum) {
		return Validationf("net amount (%s) does not equal sum of components (%s)",
			p.NetAmount, p.ComponentSum())
	}
	return nil
}

// NewPurchase builds a Purchase, failing fast when the cost breakdown
// does not add up to the net amount.
func NewPurchase(id, supplierID int64, supplierName, supplierInvoiceCode, internalInvoiceNumber string,
	netAmount, vatPercent, goods, utilities, motorExpenses, sundries, miscellaneous decimal.Decimal,
	paymentMethod, timestamp string, capitalSpend bool) (Purchase, error) {
	p := Purchase{
		ID:                    id,
		SupplierID:            supplierID,
		SupplierName:          supplierName,
		SupplierInvoiceCode:   supplierInvoiceCode,
		InternalInvoiceNumber: internalInvoiceNumber,
		NetAmount:             netAmount,
		VATPercent:            vatPercent,
		Goods:                 goods,
		Utilities:             utilities,
		MotorExpenses:         motorExpenses,
		Sundries:              sundries,
		Miscellaneous:         miscellaneous,
		PaymentMethod:         paymentMethod,
		Timestamp:             TimestampOrNow(timestamp),
		CapitalSpend:          capitalSpend,
	}
	if err := p.Validate(); err != nil {
		return Purchase{}, err
	}
	return p, nil
}
