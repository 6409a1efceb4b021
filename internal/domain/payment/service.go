package payment

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

var paiseInRupee = decimal.NewFromInt(100)

// Service ties payment intents to sales: confirming an intent marks the
// sale paid, failing it marks the sale failed.
type Service struct {
	payments Repository
	sales    sale.Repository
}

// NewService creates a payment Service with the required dependencies.
func NewService(payments Repository, sales sale.Repository) *Service {
	return &Service{payments: payments, sales: sales}
}

// CreateIntent opens a UPI intent for the given sale. The amount is the
// sale's total converted to paise, so the provider charges exactly what
// checkout computed. Only unpaid UPI sales can receive an intent.
func (s *Service) CreateIntent(ctx context.Context, tenantID, saleID string) (*Payment, error) {
	sl, err := s.sales.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, errors.Wrap(err, "get sale")
	}
	if sl.PaymentMethod != sale.PaymentUPI || sl.PaymentStatus != sale.PaymentStatusPending {
		return nil, errors.Wrapf(ErrNotPayable, "sale %s is %s/%s", sl.ID, sl.PaymentMethod, sl.PaymentStatus)
	}

	p := &Payment{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		StoreID:         sl.StoreID,
		SaleID:          sl.ID,
		ProviderOrderID: newProviderOrderID(),
		AmountPaise:     toPaise(sl.Total),
		Currency:        "INR",
		Status:          StatusCreated,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	return p, nil
}

// Status returns the latest intent for a sale.
func (s *Service) Status(ctx context.Context, tenantID, saleID string) (*Payment, error) {
	p, err := s.payments.GetBySaleID(ctx, tenantID, saleID)
	if err != nil {
		return nil, errors.Wrap(err, "get payment")
	}
	return p, nil
}

// Confirm settles an intent and marks its sale as paid.
func (s *Service) Confirm(ctx context.Context, tenantID, id string) (*Payment, error) {
	p, err := s.settle(ctx, tenantID, id, StatusConfirmed, "", "")
	if err != nil {
		return nil, err
	}
	if err := s.sales.UpdatePaymentStatus(ctx, tenantID, p.SaleID, sale.PaymentStatusPaid); err != nil {
		return nil, errors.Wrap(err, "update sale payment status")
	}
	return p, nil
}

// Fail settles an intent as failed, recording the provider's error, and
// marks its sale as failed.
func (s *Service) Fail(ctx context.Context, tenantID, id, errCode, errDesc string) (*Payment, error) {
	p, err := s.settle(ctx, tenantID, id, StatusFailed, errCode, errDesc)
	if err != nil {
		return nil, err
	}
	if err := s.sales.UpdatePaymentStatus(ctx, tenantID, p.SaleID, sale.PaymentStatusFailed); err != nil {
		return nil, errors.Wrap(err, "update sale payment status")
	}
	return p, nil
}

// HandleEvent applies a gateway status callback to the intent identified by
// its provider order reference. Pending events advance the intent without
// touching the sale; confirmed and failed events settle it.
func (s *Service) HandleEvent(ctx context.Context, tenantID, providerOrderID string, status Status, errCode, errDesc string) (*Payment, error) {
	p, err := s.payments.GetByProviderOrderID(ctx, tenantID, providerOrderID)
	if err != nil {
		return nil, errors.Wrap(err, "get payment")
	}

	switch status {
	case StatusPending:
		if p.Status.Terminal() {
			return nil, errors.Wrapf(ErrSettled, "payment %s is %s", p.ID, p.Status)
		}
		p, err = s.payments.SetStatus(ctx, tenantID, p.ID, StatusPending, "", "")
		if err != nil {
			return nil, errors.Wrap(err, "set payment status")
		}
		return p, nil
	case StatusConfirmed:
		return s.Confirm(ctx, tenantID, p.ID)
	case StatusFailed:
		return s.Fail(ctx, tenantID, p.ID, errCode, errDesc)
	default:
		return nil, errors.Errorf("unsupported event status %q", status)
	}
}

func (s *Service) settle(ctx context.Context, tenantID, id string, status Status, errCode, errDesc string) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, errors.Wrap(err, "get payment")
	}
	if p.Status.Terminal() {
		return nil, errors.Wrapf(ErrSettled, "payment %s is %s", p.ID, p.Status)
	}
	p, err = s.payments.SetStatus(ctx, tenantID, id, status, errCode, errDesc)
	if err != nil {
		return nil, errors.Wrap(err, "set payment status")
	}
	return p, nil
}

// toPaise converts a rupee amount to whole paise. Totals are rounded to 2
// decimal places at checkout, so the conversion is exact.
func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(paiseInRupee).IntPart()
}

// newProviderOrderID generates an order reference in the provider's format.
func newProviderOrderID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "order_" + id[:14]
}
