package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/product"
)

type productRequest struct {
	Name              string  `json:"name"`
	SKU               string  `json:"sku"`
	Barcode           string  `json:"barcode"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	ImageURL          string  `json:"img_url"`
	Status            string  `json:"status"`
}

type productResponse struct {
	ID                string    `json:"id"`
	StoreID           string    `json:"store_id,omitempty"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	Barcode           string    `json:"barcode,omitempty"`
	Category          string    `json:"category,omitempty"`
	Price             float64   `json:"price"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	ImageURL          string    `json:"img_url,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func productToResponse(p *product.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		StoreID:           p.StoreID,
		Name:              p.Name,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Category:          p.Category,
		Price:             p.Price.InexactFloat64(),
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.LowStock(),
		ImageURL:          p.ImageURL,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// validate rejects payloads a catalog row cannot be built from. Status
// defaults to active when omitted.
func (req *productRequest) validate() error {
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.SKU == "" {
		return errors.New("sku is required")
	}
	if req.Price < 0 {
		return errors.New("price must not be negative")
	}
	if req.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	switch req.Status {
	case "", string(product.StatusActive), string(product.StatusInactive):
	default:
		return errors.New("status must be active or inactive")
	}
	return nil
}

func (req *productRequest) toProduct(tenantID, storeID, id string) *product.Product {
	status := product.Status(req.Status)
	if status == "" {
		status = product.StatusActive
	}
	threshold := 5
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}
	return &product.Product{
		ID:                id,
		TenantID:          tenantID,
		StoreID:           storeID,
		Name:              req.Name,
		SKU:               req.SKU,
		Barcode:           req.Barcode,
		Category:          req.Category,
		Price:             decimal.NewFromFloat(req.Price).Round(2),
		Stock:             req.Stock,
		LowStockThreshold: threshold,
		ImageURL:          req.ImageURL,
		Status:            status,
	}
}

// ListProducts returns the tenant's catalog, optionally filtered by search
// text, category, status, or the low-stock flag.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	lowStock := false
	if raw := q.Get("low_stock"); raw != "" {
		lowStock, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "low_stock must be true or false")
			return
		}
	}

	id := identity(r)
	products, err := h.products.List(r.Context(), id.TenantID, product.ListFilter{
		Query:    q.Get("search"),
		Category: q.Get("category"),
		Status:   product.Status(q.Get("status")),
		LowStock: lowStock,
		Limit:    min(limit, 1000),
		Offset:   offset,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns a single catalog item.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	p, err := h.products.GetByID(r.Context(), id.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(p))
}

// CreateProduct adds a catalog item. The SKU must be unique per tenant.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := identity(r)
	p := req.toProduct(id.TenantID, id.StoreID, uuid.New().String())
	if err := h.products.Create(r.Context(), p); err != nil {
		var dupErr *product.DuplicateSKUError
		if errors.As(err, &dupErr) {
			writeError(w, http.StatusConflict, dupErr.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productToResponse(p))
}

// UpdateProduct replaces a catalog item's fields. Stock is not touched
// here; use the stock endpoint so adjustments stay auditable.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := identity(r)
	p := req.toProduct(id.TenantID, id.StoreID, chi.URLParam(r, "id"))
	if err := h.products.Update(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			writeError(w, http.StatusNotFound, "product not found")
		default:
			var dupErr *product.DuplicateSKUError
			if errors.As(err, &dupErr) {
				writeError(w, http.StatusConflict, dupErr.Error())
				return
			}
			internalError(w, r, err)
		}
		return
	}

	updated, err := h.products.GetByID(r.Context(), id.TenantID, p.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(updated))
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock applies a signed stock delta. Restocks are positive,
// corrections negative; the level never drops below zero.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusUnprocessableEntity, "delta must not be zero")
		return
	}

	id := identity(r)
	p, err := h.products.AdjustStock(r.Context(), id.TenantID, chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productToResponse(p))
}

// DeleteProduct removes a catalog item. Past sales keep their snapshots.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if err := h.products.Delete(r.Context(), id.TenantID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
