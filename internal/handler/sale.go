package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

type saleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createSaleRequest struct {
	Items         []saleItemRequest `json:"items"`
	CustomerID    string            `json:"customer_id"`
	CashierID     string            `json:"cashier_id"`
	DiscountType  string            `json:"discount_type"`
	DiscountValue float64           `json:"discount_value"`
	PaymentMethod string            `json:"payment_method"`
	PaidAmount    float64           `json:"paid_amount"`
}

type saleItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type saleResponse struct {
	ID            string             `json:"id"`
	InvoiceNo     string             `json:"invoice_no"`
	StoreID       string             `json:"store_id,omitempty"`
	CustomerID    string             `json:"customer_id,omitempty"`
	CashierID     string             `json:"cashier_id,omitempty"`
	Items         []saleItemResponse `json:"items,omitempty"`
	Subtotal      float64            `json:"subtotal"`
	DiscountType  string             `json:"discount_type"`
	DiscountValue float64            `json:"discount_value"`
	Discount      float64            `json:"discount"`
	TaxRate       float64            `json:"tax_rate"`
	Tax           float64            `json:"tax"`
	Total         float64            `json:"total"`
	PaidAmount    float64            `json:"paid_amount"`
	ChangeAmount  float64            `json:"change_amount"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

func saleToResponse(s *sale.Sale, withItems bool) saleResponse {
	resp := saleResponse{
		ID:            s.ID,
		InvoiceNo:     s.InvoiceNo,
		StoreID:       s.StoreID,
		CustomerID:    s.CustomerID,
		CashierID:     s.CashierID,
		Subtotal:      s.Subtotal.InexactFloat64(),
		DiscountType:  string(s.DiscountType),
		DiscountValue: s.DiscountValue.InexactFloat64(),
		Discount:      s.Discount.InexactFloat64(),
		TaxRate:       s.TaxRate.InexactFloat64(),
		Tax:           s.Tax.InexactFloat64(),
		Total:         s.Total.InexactFloat64(),
		PaidAmount:    s.Paid.InexactFloat64(),
		ChangeAmount:  s.Change.InexactFloat64(),
		PaymentMethod: string(s.PaymentMethod),
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		CreatedAt:     s.CreatedAt,
	}
	if withItems {
		resp.Items = make([]saleItemResponse, len(s.Items))
		for i, item := range s.Items {
			resp.Items[i] = saleItemResponse{
				ID:        item.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice.InexactFloat64(),
				Total:     item.Total.InexactFloat64(),
			}
		}
	}
	return resp
}

// CreateSale finalizes a checkout. Prices and totals are derived server
// side; the request carries only product references and payment intent.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := identity(r)
	items := make([]cart.Line, len(req.Items))
	for i, it := range req.Items {
		items[i] = cart.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	created, err := h.checkout.Checkout(r.Context(), sale.CheckoutRequest{
		TenantID:      id.TenantID,
		StoreID:       id.StoreID,
		CustomerID:    req.CustomerID,
		CashierID:     req.CashierID,
		Items:         items,
		DiscountType:  sale.DiscountType(req.DiscountType),
		DiscountValue: decimal.NewFromFloat(req.DiscountValue),
		PaymentMethod: sale.PaymentMethod(req.PaymentMethod),
		Paid:          decimal.NewFromFloat(req.PaidAmount),
	})
	if err != nil {
		writeSaleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, saleToResponse(created, true))
}

// writeSaleError maps checkout domain errors onto the error envelope.
func writeSaleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		qtyErr      *sale.InvalidQuantityError
		notFoundErr *sale.ProductNotFoundError
		inactiveErr *sale.ProductInactiveError
		stockErr    *sale.InsufficientStockError
		paidErr     *sale.InsufficientPaymentError
	)
	switch {
	case errors.Is(err, sale.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "items required")
	case errors.Is(err, sale.ErrInvalidPayment):
		writeError(w, http.StatusBadRequest, "unsupported payment method")
	case errors.As(err, &qtyErr):
		writeError(w, http.StatusUnprocessableEntity, qtyErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusUnprocessableEntity, notFoundErr.Error())
	case errors.As(err, &inactiveErr):
		writeError(w, http.StatusUnprocessableEntity, inactiveErr.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusUnprocessableEntity, stockErr.Error())
	case errors.As(err, &paidErr):
		writeError(w, http.StatusUnprocessableEntity, paidErr.Error())
	case errors.Is(err, sale.ErrInvalidDiscount):
		writeError(w, http.StatusUnprocessableEntity, "invalid discount")
	case errors.Is(err, sale.ErrInvalidTaxRate):
		writeError(w, http.StatusUnprocessableEntity, "invalid tax rate")
	case errors.Is(err, sale.ErrInvoiceConflict):
		writeError(w, http.StatusConflict, "invoice number conflict, retry checkout")
	default:
		internalError(w, r, err)
	}
}

// ListSales returns the tenant's sales, newest first, without line items.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "date_from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryTime(r, "date_to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := identity(r)
	sales, err := h.sales.List(r.Context(), id.TenantID, sale.ListFilter{
		From:          from,
		To:            to,
		CustomerID:    r.URL.Query().Get("customer_id"),
		CashierID:     r.URL.Query().Get("cashier_id"),
		PaymentMethod: sale.PaymentMethod(r.URL.Query().Get("payment_method")),
		Status:        sale.Status(r.URL.Query().Get("status")),
		Limit:         min(limit, 1000),
		Offset:        offset,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]saleResponse, len(sales))
	for i := range sales {
		resp[i] = saleToResponse(&sales[i], false)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSale returns a single sale with its items.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	s, err := h.sales.GetByID(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sale.ErrNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saleToResponse(s, true))
}

// NextInvoice previews the invoice number the next checkout would get. The
// preview is advisory: a concurrent checkout may claim it first.
func (h *Handler) NextInvoice(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	no, err := h.sales.NextInvoiceNo(r.Context(), id.TenantID, time.Now().UTC().Year())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invoice_number": no})
}

type methodTotalResponse struct {
	Method string  `json:"method"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

type topProductResponse struct {
	ProductID   string  `json:"product_id,omitempty"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

type summaryResponse struct {
	PeriodDays        int                   `json:"period_days"`
	TotalSales        int                   `json:"total_sales"`
	TotalRevenue      float64               `json:"total_revenue"`
	TotalTax          float64               `json:"total_tax"`
	TotalDiscount     float64               `json:"total_discount"`
	AverageOrderValue float64               `json:"average_order_value"`
	PaymentBreakdown  []methodTotalResponse `json:"payment_breakdown"`
	TopProducts       []topProductResponse  `json:"top_products"`
}

// SalesSummary aggregates completed sales over the last N days.
func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil || days < 1 || days > 365 {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	id := identity(r)
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	sum, err := h.sales.Summary(r.Context(), id.TenantID, from, to)
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryToResponse(sum, days))
}

func summaryToResponse(sum *sale.Summary, days int) summaryResponse {
	resp := summaryResponse{
		PeriodDays:       days,
		TotalSales:       sum.Count,
		TotalRevenue:     sum.Revenue.InexactFloat64(),
		TotalTax:         sum.Tax.InexactFloat64(),
		TotalDiscount:    sum.Discount.InexactFloat64(),
		PaymentBreakdown: make([]methodTotalResponse, len(sum.ByMethod)),
		TopProducts:      make([]topProductResponse, len(sum.TopProducts)),
	}
	if sum.Count > 0 {
		avg := sum.Revenue.Div(decimal.NewFromInt(int64(sum.Count))).Round(2)
		resp.AverageOrderValue = avg.InexactFloat64()
	}
	for i, mt := range sum.ByMethod {
		resp.PaymentBreakdown[i] = methodTotalResponse{
			Method: string(mt.Method),
			Count:  mt.Count,
			Total:  mt.Amount.InexactFloat64(),
		}
	}
	for i, tp := range sum.TopProducts {
		resp.TopProducts[i] = topProductResponse{
			ProductID:   tp.ProductID,
			ProductName: tp.Name,
			Quantity:    tp.Quantity,
			Revenue:     tp.Revenue.InexactFloat64(),
		}
	}
	return resp
}
