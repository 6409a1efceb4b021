package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/payment"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
)

type paymentResponse struct {
	ID               string     `json:"id"`
	SaleID           string     `json:"sale_id"`
	ProviderOrderID  string     `json:"provider_order_id"`
	AmountPaise      int64      `json:"amount_paise"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	ErrorCode        string     `json:"error_code,omitempty"`
	ErrorDescription string     `json:"error_description,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CapturedAt       *time.Time `json:"captured_at,omitempty"`
}

func paymentToResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		SaleID:           p.SaleID,
		ProviderOrderID:  p.ProviderOrderID,
		AmountPaise:      p.AmountPaise,
		Currency:         p.Currency,
		Status:           string(p.Status),
		Attempts:         p.Attempts,
		ErrorCode:        p.ErrorCode,
		ErrorDescription: p.ErrorDescription,
		CreatedAt:        p.CreatedAt,
		CapturedAt:       p.CapturedAt,
	}
}

// CreatePaymentIntent opens a UPI intent for an unpaid sale. The client
// hands the returned provider order reference to the payment app.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	p, err := h.payments.CreateIntent(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, sale.ErrNotFound):
			writeError(w, http.StatusNotFound, "sale not found")
		case errors.Is(err, payment.ErrNotPayable):
			writeError(w, http.StatusUnprocessableEntity, "sale is not awaiting UPI payment")
		default:
			internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, paymentToResponse(p))
}

// GetPaymentIntent reports the latest intent for a sale.
func (h *Handler) GetPaymentIntent(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	p, err := h.payments.Status(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}

type paymentEventRequest struct {
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// PaymentEvent ingests a gateway status callback for the intent behind a
// provider order reference. Confirmed and failed events also flip the
// sale's payment status.
func (h *Handler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	var req paymentEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := payment.Status(req.Status)
	switch status {
	case payment.StatusPending, payment.StatusConfirmed, payment.StatusFailed:
	default:
		writeError(w, http.StatusUnprocessableEntity, "status must be pending, confirmed, or failed")
		return
	}

	id := identity(r)
	p, err := h.payments.HandleEvent(r.Context(), id.TenantID, chi.URLParam(r, "order"),
		status, req.ErrorCode, req.ErrorDescription)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotFound):
			writeError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, payment.ErrSettled):
			writeError(w, http.StatusConflict, "payment already settled")
		default:
			internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, paymentToResponse(p))
}
