// Package export renders date-bounded transaction listings as XLSX
// workbooks. It consumes only the repositories' public Search contract
// and adds no persistence invariants.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

// Sales writes all sales between from and to (inclusive, any accepted
// timestamp shape) to w as a workbook with a totals row.
func Sales(ctx context.Context, repo bookkeep.TransactionRepository[bookkeep.Sale], from, to string, w io.Writer) error {
	sales, err := repo.Search(ctx, bookkeep.Filter{TimeFrom: from, TimeTo: to})
	if err != nil {
		return fmt.Errorf("search sales: %w", err)
	}

	headers := []any{"ID", "Customer", "Invoice", "Net Amount", "VAT %", "Payment Method", "Timestamp"}
	rows := make([][]any, 0, len(sales))
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.NetAmount)
		rows = append(rows, []any{
			s.ID, s.CustomerName, s.InvoiceNumber,
			s.NetAmount.InexactFloat64(), s.VATPercent.InexactFloat64(),
			s.PaymentMethod, s.Timestamp,
		})
	}
	totals := []any{"", "", "Total", total.InexactFloat64()}

	return write(w, "Sales", headers, rows, totals)
}

// Purchases writes all purchases between from and to (inclusive) to w,
// including the cost breakdown columns and a totals row.
func Purchases(ctx context.Context, repo bookkeep.TransactionRepository[bookkeep.Purchase], from, to string, w io.Writer) error {
	purchases, err := repo.Search(ctx, bookkeep.Filter{TimeFrom: from, TimeTo: to})
	if err != nil {
		return fmt.Errorf("search purchases: %w", err)
	}

	headers := []any{
		"ID", "Supplier", "Supplier Invoice", "Internal Invoice", "Net Amount", "VAT %",
		"Goods", "Utilities", "Motor Expenses", "Sundries", "Miscellaneous",
		"Payment Method", "Timestamp", "Capital Spend",
	}
	rows := make([][]any, 0, len(purchases))
	total := decimal.Zero
	for _, p := range purchases {
		total = total.Add(p.NetAmount)
		capital := ""
		if p.CapitalSpend {
			capital = "yes"
		}
		rows = append(rows, []any{
			p.ID, p.SupplierName, p.SupplierInvoiceCode, p.InternalInvoiceNumber,
			p.NetAmount.InexactFloat64(), p.VATPercent.InexactFloat64(),
			p.Goods.InexactFloat64(), p.Utilities.InexactFloat64(),
			p.MotorExpenses.InexactFloat64(), p.Sundries.InexactFloat64(),
			p.Miscellaneous.InexactFloat64(),
			p.PaymentMethod, p.Timestamp, capital,
		})
	}
	totals := []any{"", "", "", "Total", total.InexactFloat64()}

	return write(w, "Purchases", headers, rows, totals)
}

func write(w io.Writer, sheet string, headers []any, rows [][]any, totals []any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+3)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
		return err
	}

	return f.Write(w)
}
