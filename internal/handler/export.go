package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

var exportHeader = []any{
	"Invoice No", "Date", "Payment Method", "Payment Status",
	"Subtotal", "Discount", "Tax", "Total", "Paid", "Change",
}

// ExportSales streams an XLSX report of the last N days: one row per sale
// plus a summary sheet with the period aggregates.
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil || days < 1 || days > 365 {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	id := identity(r)
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	sales, err := h.sales.List(r.Context(), id.TenantID, sale.ListFilter{From: from, To: to})
	if err != nil {
		internalError(w, r, err)
		return
	}
	sum, err := h.sales.Summary(r.Context(), id.TenantID, from, to)
	if err != nil {
		internalError(w, r, err)
		return
	}

	f, err := buildSalesWorkbook(sales, sum)
	if err != nil {
		internalError(w, r, err)
		return
	}

	name := fmt.Sprintf("sales-%s.xlsx", to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := f.WriteTo(w); err != nil {
		// Headers are already on the wire; all we can do is log.
		zctx.From(r.Context()).Error("Write sales export", zap.Error(err))
	}
}

func buildSalesWorkbook(sales []sale.Sale, sum *sale.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	if err := setRow(f, sheet, 1, exportHeader); err != nil {
		return nil, err
	}
	for i, s := range sales {
		row := []any{
			s.InvoiceNo,
			s.CreatedAt.Format(time.RFC3339),
			string(s.PaymentMethod),
			string(s.PaymentStatus),
			s.Subtotal.InexactFloat64(),
			s.Discount.InexactFloat64(),
			s.Tax.InexactFloat64(),
			s.Total.InexactFloat64(),
			s.Paid.InexactFloat64(),
			s.Change.InexactFloat64(),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Total sales", sum.Count},
		{"Total revenue", sum.Revenue.InexactFloat64()},
		{"Total tax", sum.Tax.InexactFloat64()},
		{"Total discount", sum.Discount.InexactFloat64()},
	}
	for _, mt := range sum.ByMethod {
		rows = append(rows, []any{
			fmt.Sprintf("Revenue via %s (%d sales)", mt.Method, mt.Count),
			mt.Amount.InexactFloat64(),
		})
	}
	for _, tp := range sum.TopProducts {
		rows = append(rows, []any{
			fmt.Sprintf("Top product: %s (%d sold)", tp.Name, tp.Quantity),
			tp.Revenue.InexactFloat64(),
		})
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
