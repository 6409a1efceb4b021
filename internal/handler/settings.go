package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/settings"
)

type settingsResponse struct {
	ID                string    `json:"id"`
	StoreName         string    `json:"store_name"`
	StoreAddress      string    `json:"store_address,omitempty"`
	StorePhone        string    `json:"store_phone,omitempty"`
	StoreEmail        string    `json:"store_email,omitempty"`
	TaxRate           float64   `json:"tax_rate"`
	CurrencySymbol    string    `json:"currency_symbol"`
	CurrencyCode      string    `json:"currency_code"`
	UPIID             string    `json:"upi_id,omitempty"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func settingsToResponse(s *settings.Settings) settingsResponse {
	return settingsResponse{
		ID:                s.ID,
		StoreName:         s.StoreName,
		StoreAddress:      s.StoreAddress,
		StorePhone:        s.StorePhone,
		StoreEmail:        s.StoreEmail,
		TaxRate:           s.TaxRate.InexactFloat64(),
		CurrencySymbol:    s.CurrencySymbol,
		CurrencyCode:      s.CurrencyCode,
		UPIID:             s.UPIID,
		LowStockThreshold: s.LowStockThreshold,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// GetSettings returns the tenant's store profile, creating the default row
// on first access.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	s, err := h.settings.GetOrInit(r.Context(), id.TenantID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsToResponse(s))
}

type updateSettingsRequest struct {
	StoreName         *string  `json:"store_name"`
	StoreAddress      *string  `json:"store_address"`
	StorePhone        *string  `json:"store_phone"`
	StoreEmail        *string  `json:"store_email"`
	TaxRate           *float64 `json:"tax_rate"`
	CurrencySymbol    *string  `json:"currency_symbol"`
	CurrencyCode      *string  `json:"currency_code"`
	UPIID             *string  `json:"upi_id"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
}

// UpdateSettings applies a partial settings change. Omitted fields keep
// their current value.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := settings.Update{
		StoreName:         req.StoreName,
		StoreAddress:      req.StoreAddress,
		StorePhone:        req.StorePhone,
		StoreEmail:        req.StoreEmail,
		CurrencySymbol:    req.CurrencySymbol,
		CurrencyCode:      req.CurrencyCode,
		UPIID:             req.UPIID,
		LowStockThreshold: req.LowStockThreshold,
	}
	if req.TaxRate != nil {
		rate := decimal.NewFromFloat(*req.TaxRate)
		u.TaxRate = &rate
	}

	id := identity(r)
	s, err := h.settings.Update(r.Context(), id.TenantID, u)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidTaxRate) {
			writeError(w, http.StatusUnprocessableEntity, "tax rate must not be negative")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsToResponse(s))
}
