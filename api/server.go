/*
server.go - HTTP router and middleware configuration

ROUTER: chi

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the embedded frontend

ROUTE GROUPS:
  /api/customers/*   Customer CRUD + search, guarded delete
  /api/suppliers/*   Supplier CRUD + search, guarded delete
  /api/sales/*       Sale CRUD + filtered search, guarded delete
  /api/purchases/*   Purchase CRUD + filtered search, guarded delete
  /api/export/*      Date-bounded XLSX export
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/bookkeep"
	"github.com/ledgerline/bookkeeppr/export"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:1304"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", entityRoutes(h.Customers, h.CustomerBackup,
			func(id int64, name string) bookkeep.Customer {
				return bookkeep.Customer{ID: id, Name: name}
			}, h.Logger))

		r.Route("/suppliers", entityRoutes(h.Suppliers, h.SupplierBackup,
			func(id int64, name string) bookkeep.Supplier {
				return bookkeep.Supplier{ID: id, Name: name}
			}, h.Logger))

		r.Route("/sales", transactionRoutes(h.Sales, h.SaleBackup, decodeSale, h.Logger))
		r.Route("/purchases", transactionRoutes(h.Purchases, h.PurchaseBackup, decodePurchase, h.Logger))

		r.Route("/export", func(r chi.Router) {
			r.Get("/sales", h.ExportSales)
			r.Get("/purchases", h.ExportPurchases)
		})
	})

	return r
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportSales streams a date-bounded sales workbook.
func (h *Handler) ExportSales(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="sales_record.xlsx"`)
	if err := export.Sales(req.Context(), h.Sales,
		req.URL.Query().Get("from"), req.URL.Query().Get("to"), w); err != nil {
		h.Logger.Error("sales export failed", zap.Error(err))
	}
}

// ExportPurchases streams a date-bounded purchases workbook.
func (h *Handler) ExportPurchases(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="purchases_record.xlsx"`)
	if err := export.Purchases(req.Context(), h.Purchases,
		req.URL.Query().Get("from"), req.URL.Query().Get("to"), w); err != nil {
		h.Logger.Error("purchases export failed", zap.Error(err))
	}
}
