package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/product"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/settings"
)

// invoiceRetries bounds how many times a checkout re-runs after losing an
// invoice number race. The counter upsert hands out distinct numbers, so a
// conflict means external interference with the counters table; one retry
// normally resolves it.
const invoiceRetries = 3

// CheckoutRequest holds the input for finalizing a sale. Prices never come
// from the client: each line carries only a product ID and quantity, and
// the service derives everything else from the catalog and tenant settings.
type CheckoutRequest struct {
	TenantID      string
	StoreID       string
	CustomerID    string
	CashierID     string
	Items         []cart.Line
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	PaymentMethod PaymentMethod
	Paid          decimal.Decimal
}

// Service encapsulates checkout business logic.
type Service struct {
	products product.Repository
	settings settings.Repository
	sales    Repository
}

// NewService creates a checkout Service with the required domain
// dependencies.
func NewService(
	products product.Repository,
	settings settings.Repository,
	sales Repository,
) *Service {
	return &Service{
		products: products,
		settings: settings,
		sales:    sales,
	}
}

// Checkout finalizes a sale: it aggregates the cart, prices every line from
// the catalog, computes totals with the tenant's tax rate, applies the
// payment rules, and commits atomically. The committed sale carries the
// allocated invoice number.
//
// Validation here is a fast pre-check; the repository re-validates product
// state under row locks inside the transaction, so concurrent checkouts
// cannot oversell.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Sale, error) {
	if !req.PaymentMethod.Valid() {
		return nil, errors.Wrapf(ErrInvalidPayment, "%q", req.PaymentMethod)
	}

	lines, err := cart.Normalize(req.Items)
	if err != nil {
		if errors.Is(err, cart.ErrEmpty) {
			return nil, ErrEmptyCart
		}
		var qtyErr *cart.InvalidQuantityError
		if errors.As(err, &qtyErr) {
			return nil, &InvalidQuantityError{ProductID: qtyErr.ProductID, Quantity: qtyErr.Quantity}
		}
		return nil, errors.Wrap(err, "normalize cart")
	}

	// Batch fetch all products in a single query.
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, req.TenantID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	items := make([]Item, len(lines))
	priceLines := make([]Line, len(lines))
	for i, l := range lines {
		p, ok := productMap[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if !p.Sellable() {
			return nil, &ProductInactiveError{ProductID: l.ProductID}
		}
		if p.Stock < l.Quantity {
			return nil, &InsufficientStockError{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: p.Stock,
			}
		}

		items[i] = Item{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Total:     p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
		}
		priceLines[i] = Line{
			ProductID: p.ID,
			UnitPrice: p.Price,
			Quantity:  l.Quantity,
		}
	}

	cfg, err := s.settings.GetOrInit(ctx, req.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}

	totals, err := ComputeTotals(priceLines, req.DiscountType, req.DiscountValue, cfg.TaxRate)
	if err != nil {
		return nil, err
	}

	paid, change, paymentStatus, err := settle(req.PaymentMethod, totals.Total, req.Paid)
	if err != nil {
		return nil, err
	}

	discountType := req.DiscountType
	if discountType == "" {
		discountType = DiscountFlat
	}

	sl := &Sale{
		ID:            uuid.New().String(),
		TenantID:      req.TenantID,
		StoreID:       req.StoreID,
		CustomerID:    req.CustomerID,
		CashierID:     req.CashierID,
		Items:         items,
		Subtotal:      totals.Subtotal,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue.Round(2),
		Discount:      totals.Discount,
		TaxRate:       cfg.TaxRate,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Paid:          paid,
		Change:        change,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        StatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}

	// The repository allocates the invoice number inside the transaction.
	// A conflict can only come from outside interference; retry with a
	// fresh allocation instead of failing the sale.
	for attempt := 0; ; attempt++ {
		err = s.sales.Create(ctx, sl)
		if err == nil {
			return sl, nil
		}
		if !errors.Is(err, ErrInvoiceConflict) || attempt+1 >= invoiceRetries {
			return nil, errors.Wrap(err, "create sale")
		}
	}
}

// settle applies the payment-method rules: cash must cover the total and
// may produce change; card and UPI always settle exactly. UPI sales stay
// pending until the payment intent is confirmed.
func settle(method PaymentMethod, total, paid decimal.Decimal) (decimal.Decimal, decimal.Decimal, PaymentStatus, error) {
	switch method {
	case PaymentCash:
		if paid.LessThan(total) {
			return zero, zero, "", &InsufficientPaymentError{Total: total, Paid: paid}
		}
		return paid.Round(2), ChangeDue(total, paid), PaymentStatusPaid, nil
	case PaymentCard:
		return total, zero, PaymentStatusPaid, nil
	case PaymentUPI:
		return total, zero, PaymentStatusPending, nil
	default:
		return zero, zero, "", errors.Wrapf(ErrInvalidPayment, "%q", method)
	}
}
