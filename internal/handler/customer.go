package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/customer"
)

type customerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func customerToResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		StoreID:   c.StoreID,
		Name:      c.Name,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}

// writeCustomerError maps customer domain errors onto the error envelope.
func writeCustomerError(w http.ResponseWriter, r *http.Request, err error) {
	var dupErr *customer.DuplicatePhoneError
	switch {
	case errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, customer.ErrNameRequired), errors.Is(err, customer.ErrPhoneRequired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &dupErr):
		writeError(w, http.StatusConflict, dupErr.Error())
	default:
		internalError(w, r, err)
	}
}

// ListCustomers returns the tenant's customers, optionally filtered by a
// name or phone search.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	customers, err := h.customers.List(r.Context(), id.TenantID, r.URL.Query().Get("search"))
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i := range customers {
		resp[i] = customerToResponse(&customers[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	c, err := h.customers.GetByID(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerToResponse(c))
}

// CreateCustomer registers a repeat buyer. The phone number must be unique
// per tenant.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := identity(r)
	c := &customer.Customer{
		ID:       uuid.New().String(),
		TenantID: id.TenantID,
		StoreID:  id.StoreID,
		Name:     req.Name,
		Phone:    req.Phone,
	}
	if err := c.Validate(); err != nil {
		writeCustomerError(w, r, err)
		return
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customerToResponse(c))
}

// UpdateCustomer replaces a customer's name and phone.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := identity(r)
	c := &customer.Customer{
		ID:       chi.URLParam(r, "id"),
		TenantID: id.TenantID,
		Name:     req.Name,
		Phone:    req.Phone,
	}
	if err := c.Validate(); err != nil {
		writeCustomerError(w, r, err)
		return
	}
	if err := h.customers.Update(r.Context(), c); err != nil {
		writeCustomerError(w, r, err)
		return
	}

	updated, err := h.customers.GetByID(r.Context(), id.TenantID, c.ID)
	if err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerToResponse(updated))
}

// DeleteCustomer removes a customer. Their past sales keep a null
// customer reference.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if err := h.customers.Delete(r.Context(), id.TenantID, chi.URLParam(r, "id")); err != nil {
		writeCustomerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}
