package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/cart"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/heldsale"
)

type createHeldSaleRequest struct {
	Label string            `json:"label"`
	Items []saleItemRequest `json:"items"`
}

type heldSaleResponse struct {
	ID        string      `json:"id"`
	StoreID   string      `json:"store_id,omitempty"`
	Label     string      `json:"label"`
	Items     []cart.Line `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

func heldSaleToResponse(h *heldsale.HeldSale) heldSaleResponse {
	return heldSaleResponse{
		ID:        h.ID,
		StoreID:   h.StoreID,
		Label:     h.Label,
		Items:     h.Lines,
		CreatedAt: h.CreatedAt,
	}
}

// CreateHeldSale parks the current cart so the counter is free for the
// next customer. No invoice number is allocated and no stock moves.
func (h *Handler) CreateHeldSale(w http.ResponseWriter, r *http.Request) {
	var req createHeldSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]cart.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = cart.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	normalized, err := cart.Normalize(lines)
	if err != nil {
		if errors.Is(err, cart.ErrEmpty) {
			writeError(w, http.StatusBadRequest, "items required")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := identity(r)
	held := &heldsale.HeldSale{
		ID:       uuid.New().String(),
		TenantID: id.TenantID,
		StoreID:  id.StoreID,
		Label:    req.Label,
		Lines:    normalized,
	}
	if err := h.heldSales.Create(r.Context(), held); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, heldSaleToResponse(held))
}

// ListHeldSales returns the tenant's parked carts, newest first.
func (h *Handler) ListHeldSales(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	held, err := h.heldSales.List(r.Context(), id.TenantID)
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]heldSaleResponse, len(held))
	for i := range held {
		resp[i] = heldSaleToResponse(&held[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHeldSale returns a parked cart snapshot for resuming at the counter.
func (h *Handler) GetHeldSale(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	held, err := h.heldSales.GetByID(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, heldsale.ErrNotFound) {
			writeError(w, http.StatusNotFound, "held sale not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, heldSaleToResponse(held))
}

// DeleteHeldSale discards a parked cart, typically after it was resumed
// and checked out.
func (h *Handler) DeleteHeldSale(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if err := h.heldSales.Delete(r.Context(), id.TenantID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, heldsale.ErrNotFound) {
			writeError(w, http.StatusNotFound, "held sale not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "held sale deleted"})
}
