// Package handler exposes the POS domain over a JSON HTTP API. Handlers
// translate requests into domain calls and map domain errors onto the
// shared error envelope; all business rules live in the domain packages.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/customer"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/heldsale"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/payment"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/product"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/sale"
	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/settings"
)

// Handler serves the tenant-scoped JSON API, delegating business logic to
// the domain services and repositories.
type Handler struct {
	products  product.Repository
	customers customer.Repository
	settings  settings.Repository
	heldSales heldsale.Repository
	sales     sale.Repository
	checkout  *sale.Service
	payments  *payment.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	customers customer.Repository,
	settings settings.Repository,
	heldSales heldsale.Repository,
	sales sale.Repository,
	checkout *sale.Service,
	payments *payment.Service,
) *Handler {
	return &Handler{
		products:  products,
		customers: customers,
		settings:  settings,
		heldSales: heldSales,
		sales:     sales,
		checkout:  checkout,
		payments:  payments,
	}
}

// Routes assembles the API router. The caller mounts it behind the security
// middleware; nothing here is reachable without a valid API key.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.CreateSale)
		r.Get("/", h.ListSales)
		r.Get("/next-invoice", h.NextInvoice)
		r.Get("/summary", h.SalesSummary)
		r.Get("/export", h.ExportSales)
		r.Get("/{id}", h.GetSale)
		r.Post("/{id}/payment", h.CreatePaymentIntent)
		r.Get("/{id}/payment", h.GetPaymentIntent)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Post("/{id}/stock", h.AdjustStock)
	})

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/{id}", h.GetCustomer)
		r.Put("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.Put("/", h.UpdateSettings)
	})

	r.Route("/held-sales", func(r chi.Router) {
		r.Get("/", h.ListHeldSales)
		r.Post("/", h.CreateHeldSale)
		r.Get("/{id}", h.GetHeldSale)
		r.Delete("/{id}", h.DeleteHeldSale)
	})

	r.Post("/payments/{order}/events", h.PaymentEvent)

	return r
}
