package payment

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

// --- Mock implementations ---

type mockPaymentRepo struct {
	byID map[string]*Payment
}

func (m *mockPaymentRepo) Create(_ context.Context, p *Payment) error {
	if m.byID == nil {
		m.byID = make(map[string]*Payment)
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, _, id string) (*Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) GetBySaleID(_ context.Context, _, saleID string) (*Payment, error) {
	for _, p := range m.byID {
		if p.SaleID == saleID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPaymentRepo) GetByProviderOrderID(_ context.Context, _, providerOrderID string) (*Payment, error) {
	for _, p := range m.byID {
		if p.ProviderOrderID == providerOrderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPaymentRepo) SetStatus(_ context.Context, _, id string, status Status, errCode, errDesc string) (*Payment, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	p.Attempts++
	p.ErrorCode = errCode
	p.ErrorDescription = errDesc
	if status == StatusConfirmed {
		now := time.Now()
		p.CapturedAt = &now
	}
	cp := *p
	return &cp, nil
}

type mockSaleRepo struct {
	sales    map[string]*sale.Sale
	statuses map[string]sale.PaymentStatus
}

func (m *mockSaleRepo) Create(_ context.Context, _ *sale.Sale) error { return nil }

func (m *mockSaleRepo) GetByID(_ context.Context, _, id string) (*sale.Sale, error) {
	s, ok := m.sales[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	return s, nil
}

func (m *mockSaleRepo) List(_ context.Context, _ string, _ sale.ListFilter) ([]sale.Sale, error) {
	return nil, nil
}

func (m *mockSaleRepo) NextInvoiceNo(_ context.Context, _ string, year int) (string, error) {
	return sale.FormatInvoiceNo(year, 1), nil
}

func (m *mockSaleRepo) Summary(_ context.Context, _ string, _, _ time.Time) (*sale.Summary, error) {
	return nil, nil
}

func (m *mockSaleRepo) UpdatePaymentStatus(_ context.Context, _, id string, status sale.PaymentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]sale.PaymentStatus)
	}
	m.statuses[id] = status
	return nil
}

// --- Tests ---

func newUPISale(id, total string) *sale.Sale {
	return &sale.Sale{
		ID:            id,
		TenantID:      "t1",
		Total:         decimal.RequireFromString(total),
		PaymentMethod: sale.PaymentUPI,
		PaymentStatus: sale.PaymentStatusPending,
	}
}

func TestCreateIntent(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "188.80"),
	}}
	svc := NewService(&mockPaymentRepo{}, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")

	require.NoError(t, err)
	assert.Equal(t, "s1", p.SaleID)
	assert.Equal(t, int64(18880), p.AmountPaise)
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, StatusCreated, p.Status)
	assert.Contains(t, p.ProviderOrderID, "order_")
}

func TestCreateIntent_SaleNotFound(t *testing.T) {
	svc := NewService(&mockPaymentRepo{}, &mockSaleRepo{})

	_, err := svc.CreateIntent(context.Background(), "t1", "missing")
	require.ErrorIs(t, err, sale.ErrNotFound)
}

func TestCreateIntent_RejectsCashSale(t *testing.T) {
	cash := newUPISale("s1", "50.00")
	cash.PaymentMethod = sale.PaymentCash
	cash.PaymentStatus = sale.PaymentStatusPaid
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{"s1": cash}}
	svc := NewService(&mockPaymentRepo{}, sales)

	_, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.ErrorIs(t, err, ErrNotPayable)
}

func TestConfirm_MarksSalePaid(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "100.00"),
	}}
	payments := &mockPaymentRepo{}
	svc := NewService(payments, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), "t1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.CapturedAt)
	assert.Equal(t, sale.PaymentStatusPaid, sales.statuses["s1"])
}

func TestFail_MarksSaleFailed(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "100.00"),
	}}
	svc := NewService(&mockPaymentRepo{}, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.NoError(t, err)

	failed, err := svc.Fail(context.Background(), "t1", p.ID, "BAD_VPA", "invalid UPI handle")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "BAD_VPA", failed.ErrorCode)
	assert.Equal(t, sale.PaymentStatusFailed, sales.statuses["s1"])
}

func TestConfirm_AlreadySettled(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "100.00"),
	}}
	svc := NewService(&mockPaymentRepo{}, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "t1", p.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "t1", p.ID)
	require.ErrorIs(t, err, ErrSettled)
}

func TestHandleEvent_PendingThenConfirmed(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "100.00"),
	}}
	svc := NewService(&mockPaymentRepo{}, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.NoError(t, err)

	pending, err := svc.HandleEvent(context.Background(), "t1", p.ProviderOrderID, StatusPending, "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, pending.Status)
	assert.Empty(t, sales.statuses, "pending events must not touch the sale")

	confirmed, err := svc.HandleEvent(context.Background(), "t1", p.ProviderOrderID, StatusConfirmed, "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, sale.PaymentStatusPaid, sales.statuses["s1"])
}

func TestHandleEvent_UnknownOrder(t *testing.T) {
	svc := NewService(&mockPaymentRepo{}, &mockSaleRepo{})

	_, err := svc.HandleEvent(context.Background(), "t1", "order_missing", StatusConfirmed, "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHandleEvent_UnsupportedStatus(t *testing.T) {
	sales := &mockSaleRepo{sales: map[string]*sale.Sale{
		"s1": newUPISale("s1", "100.00"),
	}}
	svc := NewService(&mockPaymentRepo{}, sales)

	p, err := svc.CreateIntent(context.Background(), "t1", "s1")
	require.NoError(t, err)

	_, err = svc.HandleEvent(context.Background(), "t1", p.ProviderOrderID, Status("refunded"), "", "")
	require.Error(t, err)
}
