package bookkeep

import "github.com/shopspring/decimal"

// Range constrains a numeric field. When Eq is set it wins and Min/Max
// are ignored; otherwise Min and Max apply independently.
type Range struct {
	Eq  *decimal.Decimal
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// IsZero reports whether the range carries no constraint at all.
func (r Range) IsZero() bool { return r.Eq == nil && r.Min == nil && r.Max == nil }

// Filter is a structured per-field specification used to build search
// predicates. Each repository maps only the keys its table recognizes;
// the rest are ignored. The zero Filter matches everything.
type Filter struct {
	// Substring keys (case-insensitive).
	Entity          string // customer/supplier name
	Invoice         string // sale invoice number
	SupplierInvoice string // purchase supplier invoice code
	InternalInvoice string // purchase internal invoice number

	// Range keys.
	Net           Range
	Goods         Range
	Utilities     Range
	MotorExpenses Range
	Sundries      Range
	Miscellaneous Range

	// Set-membership keys.
	VAT     []decimal.Decimal
	Payment []string

	// Date-range keys. Values pass through NormalizeTimestamp; an
	// unparseable bound is dropped rather than failing the search.
	TimeFrom string
	TimeTo   string

	// Purchases only. Nil means no constraint; otherwise matched with
	// equality, so false selects only non-capital rows.
	CapitalSpend *bool
}
