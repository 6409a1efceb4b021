package sale

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/product"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/settings"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context, _ string, _ product.ListFilter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, _, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ string, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) AdjustStock(_ context.Context, _, _ string, _ int) (*product.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) Delete(_ context.Context, _, _ string) error { return nil }

type mockSettingsRepo struct {
	cfg settings.Settings
	err error
}

func (m *mockSettingsRepo) GetOrInit(_ context.Context, _ string) (*settings.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, _ string, _ settings.Update) (*settings.Settings, error) {
	return nil, nil
}

type mockSaleRepo struct {
	created  []*Sale
	errQueue []error
	nextSeq  int
}

func (m *mockSaleRepo) Create(_ context.Context, s *Sale) error {
	if len(m.errQueue) > 0 {
		err := m.errQueue[0]
		m.errQueue = m.errQueue[1:]
		if err != nil {
			return err
		}
	}
	m.nextSeq++
	s.InvoiceNo = FormatInvoiceNo(s.CreatedAt.Year(), m.nextSeq)
	m.created = append(m.created, s)
	return nil
}

func (m *mockSaleRepo) GetByID(_ context.Context, _, _ string) (*Sale, error) {
	return nil, ErrNotFound
}

func (m *mockSaleRepo) List(_ context.Context, _ string, _ ListFilter) ([]Sale, error) {
	return nil, nil
}

func (m *mockSaleRepo) NextInvoiceNo(_ context.Context, _ string, year int) (string, error) {
	return FormatInvoiceNo(year, m.nextSeq+1), nil
}

func (m *mockSaleRepo) Summary(_ context.Context, _ string, _, _ time.Time) (*Summary, error) {
	return nil, nil
}

func (m *mockSaleRepo) UpdatePaymentStatus(_ context.Context, _, _ string, _ PaymentStatus) error {
	return nil
}

// --- Helpers ---

func newTestProduct(id, name, price string, stock int) product.Product {
	return product.Product{
		ID:     id,
		Name:   name,
		SKU:    "SKU-" + id,
		Price:  dec(price),
		Stock:  stock,
		Status: product.StatusActive,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func newService(products *mockProductRepo, taxRate string, sales *mockSaleRepo) *Service {
	cfg := settings.Settings{TaxRate: dec(taxRate)}
	return NewService(products, &mockSettingsRepo{cfg: cfg}, sales)
}

func cashRequest(paid string, items ...cart.Line) CheckoutRequest {
	return CheckoutRequest{
		TenantID:      "t1",
		Items:         items,
		PaymentMethod: PaymentCash,
		Paid:          dec(paid),
	}
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newService(newProductRepo(), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(), cashRequest("100.00"))
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	svc := newService(newProductRepo(), "18", &mockSaleRepo{})

	req := cashRequest("100.00", cart.Line{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = "cheque"

	_, err := svc.Checkout(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCheckout_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("100.00", cart.Line{ProductID: "p1", Quantity: 0}))

	var qtyErr *InvalidQuantityError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, "p1", qtyErr.ProductID)
}

func TestCheckout_ProductNotFound(t *testing.T) {
	svc := newService(newProductRepo(), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("100.00", cart.Line{ProductID: "missing", Quantity: 1}))

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
}

func TestCheckout_ProductInactive(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	p1.Status = product.StatusInactive
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("100.00", cart.Line{ProductID: "p1", Quantity: 1}))

	var inactiveErr *ProductInactiveError
	require.ErrorAs(t, err, &inactiveErr)
	assert.Equal(t, "p1", inactiveErr.ProductID)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 3)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("500.00", cart.Line{ProductID: "p1", Quantity: 5}))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
}

func TestCheckout_CashSale(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	p2 := newTestProduct("p2", "Shampoo", "20.00", 10)
	sales := &mockSaleRepo{}
	svc := newService(newProductRepo(p1, p2), "18", sales)

	sl, err := svc.Checkout(context.Background(), cashRequest("200.00",
		cart.Line{ProductID: "p1", Quantity: 2},
		cart.Line{ProductID: "p2", Quantity: 4},
	))

	require.NoError(t, err)
	assertDecEqual(t, "160.00", sl.Subtotal)
	assertDecEqual(t, "0.00", sl.Discount)
	assertDecEqual(t, "28.80", sl.Tax)
	assertDecEqual(t, "188.80", sl.Total)
	assertDecEqual(t, "200.00", sl.Paid)
	assertDecEqual(t, "11.20", sl.Change)
	assert.Equal(t, PaymentStatusPaid, sl.PaymentStatus)
	assert.Equal(t, StatusCompleted, sl.Status)
	assert.NotEmpty(t, sl.ID)
	assert.False(t, sl.CreatedAt.IsZero())
	assert.Equal(t, FormatInvoiceNo(sl.CreatedAt.Year(), 1), sl.InvoiceNo)

	require.Len(t, sl.Items, 2)
	assert.Equal(t, "Soap", sl.Items[0].Name)
	assertDecEqual(t, "40.00", sl.Items[0].UnitPrice)
	assertDecEqual(t, "80.00", sl.Items[0].Total)
	assert.Len(t, sales.created, 1)
}

func TestCheckout_AggregatesDuplicateLines(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 3)
	svc := newService(newProductRepo(p1), "0", &mockSaleRepo{})

	sl, err := svc.Checkout(context.Background(), cashRequest("200.00",
		cart.Line{ProductID: "p1", Quantity: 1},
		cart.Line{ProductID: "p1", Quantity: 2},
	))

	require.NoError(t, err)
	require.Len(t, sl.Items, 1)
	assert.Equal(t, 3, sl.Items[0].Quantity)
	assertDecEqual(t, "120.00", sl.Subtotal)
}

func TestCheckout_AggregatedQuantityExceedsStock(t *testing.T) {
	// 2 + 2 = 4 exceeds the 3 on hand even though each line alone fits.
	p1 := newTestProduct("p1", "Soap", "40.00", 3)
	svc := newService(newProductRepo(p1), "0", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(), cashRequest("200.00",
		cart.Line{ProductID: "p1", Quantity: 2},
		cart.Line{ProductID: "p1", Quantity: 2},
	))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
}

func TestCheckout_CashUnderpayment(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("40.00", cart.Line{ProductID: "p1", Quantity: 1}))

	var payErr *InsufficientPaymentError
	require.ErrorAs(t, err, &payErr)
	assertDecEqual(t, "47.20", payErr.Total)
	assertDecEqual(t, "40.00", payErr.Paid)
}

func TestCheckout_CardSettlesExactly(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	req := cashRequest("999.00", cart.Line{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = PaymentCard

	sl, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assertDecEqual(t, "47.20", sl.Paid)
	assertDecEqual(t, "0.00", sl.Change)
	assert.Equal(t, PaymentStatusPaid, sl.PaymentStatus)
}

func TestCheckout_UPIStaysPending(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	req := cashRequest("0", cart.Line{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = PaymentUPI

	sl, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assertDecEqual(t, "47.20", sl.Paid)
	assert.Equal(t, PaymentStatusPending, sl.PaymentStatus)
}

func TestCheckout_PercentageDiscount(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "100.00", 10)
	svc := newService(newProductRepo(p1), "18", &mockSaleRepo{})

	req := cashRequest("200.00", cart.Line{ProductID: "p1", Quantity: 1})
	req.DiscountType = DiscountPercentage
	req.DiscountValue = dec("10")

	sl, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assertDecEqual(t, "10.00", sl.Discount)
	assertDecEqual(t, "16.20", sl.Tax)
	assertDecEqual(t, "106.20", sl.Total)
}

func TestCheckout_RetriesOnInvoiceConflict(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	sales := &mockSaleRepo{errQueue: []error{ErrInvoiceConflict}}
	svc := newService(newProductRepo(p1), "0", sales)

	sl, err := svc.Checkout(context.Background(),
		cashRequest("40.00", cart.Line{ProductID: "p1", Quantity: 1}))

	require.NoError(t, err)
	assert.NotEmpty(t, sl.InvoiceNo)
	assert.Len(t, sales.created, 1)
}

func TestCheckout_InvoiceConflictExhaustsRetries(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	sales := &mockSaleRepo{errQueue: []error{
		ErrInvoiceConflict, ErrInvoiceConflict, ErrInvoiceConflict,
	}}
	svc := newService(newProductRepo(p1), "0", sales)

	_, err := svc.Checkout(context.Background(),
		cashRequest("40.00", cart.Line{ProductID: "p1", Quantity: 1}))

	require.ErrorIs(t, err, ErrInvoiceConflict)
	assert.Empty(t, sales.created)
}

func TestCheckout_SettingsError(t *testing.T) {
	p1 := newTestProduct("p1", "Soap", "40.00", 10)
	svc := NewService(
		newProductRepo(p1),
		&mockSettingsRepo{err: errors.New("settings unavailable")},
		&mockSaleRepo{},
	)

	_, err := svc.Checkout(context.Background(),
		cashRequest("40.00", cart.Line{ProductID: "p1", Quantity: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get settings")
}

func TestCheckout_ProductFetchError(t *testing.T) {
	repo := newProductRepo()
	repo.getErr = errors.New("db down")
	svc := newService(repo, "0", &mockSaleRepo{})

	_, err := svc.Checkout(context.Background(),
		cashRequest("40.00", cart.Line{ProductID: "p1", Quantity: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}
