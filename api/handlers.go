/*
handlers.go - JSON route handlers over the repositories

PURPOSE:
  The thin glue between HTTP and the persistence core. Handlers decode
  already-typed arguments, call the repositories, and translate the
  typed error taxonomy into statuses:

    validation     -> 400
    not-found      -> 404
    conflict       -> 409
    backup failure -> 500 (delete aborted, snapshot incomplete)
    anything else  -> 500 (logged with context)

  Route groups are built once per concrete kind through compile-time
  generic helpers; there is no runtime branching on a type name.

DELETES:
  Every DELETE goes through the recovery package's guarded workflow.
  The handler never calls Repository.Delete directly.
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/bookkeep"
	"github.com/ledgerline/bookkeeppr/recovery"
	"github.com/ledgerline/bookkeeppr/store/sqlite"
)

// Handler carries the repositories and guarded-delete workflows for all
// four record kinds.
type Handler struct {
	Customers bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale]
	Suppliers bookkeep.EntityRepository[bookkeep.Supplier, bookkeep.Purchase]
	Sales     bookkeep.TransactionRepository[bookkeep.Sale]
	Purchases bookkeep.TransactionRepository[bookkeep.Purchase]

	CustomerBackup *recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]
	SupplierBackup *recovery.EntityBackup[bookkeep.Supplier, bookkeep.Purchase]
	SaleBackup     *recovery.TransactionBackup[bookkeep.Sale]
	PurchaseBackup *recovery.TransactionBackup[bookkeep.Purchase]

	Logger *zap.Logger
}

// NewHandler wires repositories over the primary store and backup
// workflows over the recovery directory.
func NewHandler(db *sqlite.DB, recoveryDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	customers := sqlite.NewCustomerRepository(db, logger)
	suppliers := sqlite.NewSupplierRepository(db, logger)
	sales := sqlite.NewSaleRepository(db, logger)
	purchases := sqlite.NewPurchaseRepository(db, logger)

	return &Handler{
		Customers: customers,
		Suppliers: suppliers,
		Sales:     sales,
		Purchases: purchases,
		CustomerBackup: &recovery.EntityBackup[bookkeep.Customer, bookkeep.Sale]{
			Dir:    recoveryDir,
			Source: customers,
			Open: func(path string) (bookkeep.EntityRepository[bookkeep.Customer, bookkeep.Sale], func() error, error) {
				snap, err := sqlite.Open(path)
				if err != nil {
					return nil, nil, err
				}
				return sqlite.NewCustomerRepository(snap, logger), snap.Close, nil
			},
			Logger: logger,
		},
		SupplierBackup: &recovery.EntityBackup[bookkeep.Supplier, bookkeep.Purchase]{
			Dir:    recoveryDir,
			Source: suppliers,
			Open: func(path string) (bookkeep.EntityRepository[bookkeep.Supplier, bookkeep.Purchase], func() error, error) {
				snap, err := sqlite.Open(path)
				if err != nil {
					return nil, nil, err
				}
				return sqlite.NewSupplierRepository(snap, logger), snap.Close, nil
			},
			Logger: logger,
		},
		SaleBackup: &recovery.TransactionBackup[bookkeep.Sale]{
			Dir:    recoveryDir,
			Source: sales,
			Open: func(path string) (bookkeep.TransactionRepository[bookkeep.Sale], func() error, error) {
				snap, err := sqlite.Open(path)
				if err != nil {
					return nil, nil, err
				}
				return sqlite.NewSaleRepository(snap, logger), snap.Close, nil
			},
			Logger: logger,
		},
		PurchaseBackup: &recovery.TransactionBackup[bookkeep.Purchase]{
			Dir:    recoveryDir,
			Source: purchases,
			Open: func(path string) (bookkeep.TransactionRepository[bookkeep.Purchase], func() error, error) {
				snap, err := sqlite.Open(path)
				if err != nil {
					return nil, nil, err
				}
				return sqlite.NewPurchaseRepository(snap, logger), snap.Close, nil
			},
			Logger: logger,
		},
		Logger: logger,
	}
}

// =============================================================================
// ENTITY ROUTES (customers, suppliers)
// =============================================================================

type entityPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// entityRoutes builds the route group for one parent kind.
func entityRoutes[E bookkeep.Entity, T bookkeep.Transaction](
	repo bookkeep.EntityRepository[E, T],
	backup *recovery.EntityBackup[E, T],
	wrap func(id int64, name string) E,
	log *zap.Logger,
) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query().Get("q")
			var (
				out []E
				err error
			)
			if q == "" {
				out, err = repo.All(req.Context())
			} else {
				out, err = repo.Search(req.Context(), q)
			}
			respond(w, log, out, err)
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var payload entityPayload
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, log, bookkeep.Validationf("invalid body: %v", err))
				return
			}
			created, err := repo.Create(req.Context(), wrap(payload.ID, payload.Name))
			respondStatus(w, log, created, err, http.StatusCreated)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			entity, err := repo.Read(req.Context(), bookkeep.ByID(id))
			respond(w, log, entity, err)
		})

		r.Get("/{id}/transactions", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			entity, err := repo.Read(req.Context(), bookkeep.ByID(id))
			if err != nil {
				writeError(w, log, err)
				return
			}
			txs, err := repo.Transactions(req.Context(), entity)
			respond(w, log, txs, err)
		})

		r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			var payload entityPayload
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeError(w, log, bookkeep.Validationf("invalid body: %v", err))
				return
			}
			updated, err := repo.Update(req.Context(), wrap(id, payload.Name))
			respond(w, log, updated, err)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			deleted, err := recovery.DeleteEntity(req.Context(), backup, id)
			respond(w, log, deleted, err)
		})
	}
}

// =============================================================================
// TRANSACTION ROUTES (sales, purchases)
// =============================================================================

// transactionRoutes builds the route group for one transaction kind.
// decode turns a request body into a validated record.
func transactionRoutes[T bookkeep.Transaction](
	repo bookkeep.TransactionRepository[T],
	backup *recovery.TransactionBackup[T],
	decode func(*http.Request) (T, error),
	log *zap.Logger,
) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			out, err := repo.Search(req.Context(), filterFromQuery(req.URL.Query()))
			respond(w, log, out, err)
		})

		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			tx, err := decode(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			created, err := repo.Create(req.Context(), tx)
			respondStatus(w, log, created, err, http.StatusCreated)
		})

		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			tx, err := repo.Read(req.Context(), id)
			respond(w, log, tx, err)
		})

		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			// Full-record replace; the caller pre-merges any field-level
			// patches before submitting.
			tx, err := decode(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			updated, err := repo.Update(req.Context(), tx)
			respond(w, log, updated, err)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := pathID(req)
			if err != nil {
				writeError(w, log, err)
				return
			}
			deleted, err := recovery.DeleteTransaction(req.Context(), backup, id)
			respond(w, log, deleted, err)
		})
	}
}

type salePayload struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	InvoiceNumber string          `json:"invoice_number"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	VATPercent    decimal.Decimal `json:"vat_percent"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     string          `json:"timestamp"`
}

func decodeSale(req *http.Request) (bookkeep.Sale, error) {
	var p salePayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return bookkeep.Sale{}, bookkeep.Validationf("invalid body: %v", err)
	}
	id := p.ID
	if pathID, err := pathIDOptional(req); err == nil {
		id = pathID
	}
	return bookkeep.NewSale(id, p.CustomerID, p.CustomerName, p.InvoiceNumber,
		p.NetAmount, p.VATPercent, p.PaymentMethod, p.Timestamp), nil
}

type purchasePayload struct {
	ID                    int64           `json:"id"`
	SupplierID            int64           `json:"supplier_id"`
	SupplierName          string          `json:"supplier_name"`
	SupplierInvoiceCode   string          `json:"supplier_invoice_code"`
	InternalInvoiceNumber string          `json:"internal_invoice_number"`
	NetAmount             decimal.Decimal `json:"net_amount"`
	VATPercent            decimal.Decimal `json:"vat_percent"`
	Goods                 decimal.Decimal `json:"goods"`
	Utilities             decimal.Decimal `json:"utilities"`
	MotorExpenses         decimal.Decimal `json:"motor_expenses"`
	Sundries              decimal.Decimal `json:"sundries"`
	Miscellaneous         decimal.Decimal `json:"miscellaneous"`
	PaymentMethod         string          `json:"payment_method"`
	Timestamp             string          `json:"timestamp"`
	CapitalSpend          bool            `json:"capital_spend"`
}

func decodePurchase(req *http.Request) (bookkeep.Purchase, error) {
	var p purchasePayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return bookkeep.Purchase{}, bookkeep.Validationf("invalid body: %v", err)
	}
	id := p.ID
	if pathID, err := pathIDOptional(req); err == nil {
		id = pathID
	}
	return bookkeep.NewPurchase(id, p.SupplierID, p.SupplierName,
		p.SupplierInvoiceCode, p.InternalInvoiceNumber,
		p.NetAmount, p.VATPercent, p.Goods, p.Utilities, p.MotorExpenses,
		p.Sundries, p.Miscellaneous, p.PaymentMethod, p.Timestamp, p.CapitalSpend)
}

// =============================================================================
// FILTER PARSING
// =============================================================================

// filterFromQuery maps query parameters onto the filter specification.
// Repositories ignore keys their table does not recognize, so one
// parser serves both transaction kinds.
func filterFromQuery(q url.Values) bookkeep.Filter {
	f := bookkeep.Filter{
		Entity:          q.Get("entity"),
		Invoice:         q.Get("invoice"),
		SupplierInvoice: q.Get("supplier_invoice"),
		InternalInvoice: q.Get("internal_invoice"),
		Net:             rangeFromQuery(q, "net"),
		Goods:           rangeFromQuery(q, "goods"),
		Utilities:       rangeFromQuery(q, "utilities"),
		MotorExpenses:   rangeFromQuery(q, "motor_expenses"),
		Sundries:        rangeFromQuery(q, "sundries"),
		Miscellaneous:   rangeFromQuery(q, "miscellaneous"),
		TimeFrom:        q.Get("from"),
		TimeTo:          q.Get("to"),
	}

	for _, v := range splitList(q.Get("vat")) {
		if d, err := decimal.NewFromString(v); err == nil {
			f.VAT = append(f.VAT, d)
		}
	}
	f.Payment = splitList(q.Get("payment"))

	if v := q.Get("capital_spend"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.CapitalSpend = &b
		}
	}
	return f
}

func rangeFromQuery(q url.Values, key string) bookkeep.Range {
	var r bookkeep.Range
	if d, err := decimal.NewFromString(q.Get(key + "_eq")); err == nil {
		r.Eq = &d
	}
	if d, err := decimal.NewFromString(q.Get(key + "_min")); err == nil {
		r.Min = &d
	}
	if d, err := decimal.NewFromString(q.Get(key + "_max")); err == nil {
		r.Max = &d
	}
	return r
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func pathID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, bookkeep.Validationf("invalid id %q", chi.URLParam(req, "id"))
	}
	return id, nil
}

// pathIDOptional is pathID for routes where the id may be absent
// (create vs update on the same decode path).
func pathIDOptional(req *http.Request) (int64, error) {
	if chi.URLParam(req, "id") == "" {
		return 0, bookkeep.ErrNotFound
	}
	return pathID(req)
}

func respond(w http.ResponseWriter, log *zap.Logger, body any, err error) {
	respondStatus(w, log, body, err, http.StatusOK)
}

func respondStatus(w http.ResponseWriter, log *zap.Logger, body any, err error, status int) {
	if err != nil {
		writeError(w, log, err)
		return
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case bookkeep.IsValidation(err):
		status = http.StatusBadRequest
	case bookkeep.IsNotFound(err):
		status = http.StatusNotFound
	case bookkeep.IsConflict(err):
		status = http.StatusConflict
	case bookkeep.IsBackupFailure(err):
		log.Error("delete aborted: backup failed", zap.Error(err))
	default:
		log.Error("unexpected error", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
