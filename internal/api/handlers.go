package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arangbara/ppob/internal/balance"
	"github.com/arangbara/ppob/internal/gateway"
	"github.com/arangbara/ppob/internal/repository"
	"github.com/arangbara/ppob/internal/transaction"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	txnSvc      *transaction.Service
	txnRepo     *repository.TransactionRepo
	productRepo *repository.ProductRepo
	anomalyRepo *repository.AnomalyRepo
	balances    *balance.Checker
	validate    *validator.Validate
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- SubmitTransaction ---

func (h *Handlers) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req SubmitTransactionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.txnSvc.Submit(r.Context(), req.CustomerNo, req.ProductCode)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrEmptyCustomerNo),
			errors.Is(err, transaction.ErrUnknownProduct),
			errors.Is(err, transaction.ErrProductDisabled):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrDuplicateRef):
			writeError(w, http.StatusConflict, "duplicate reference, transaction already exists")
		case gateway.IsUnrecognized(err):
			writeError(w, http.StatusBadGateway, "gateway returned an unrecognized response, transaction was not started")
		default:
			writeError(w, http.StatusBadGateway, "could not reach the payment gateway, please retry")
		}
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

// --- ListTransactions ---

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		Status:      q.Get("status"),
		CustomerNo:  q.Get("customer_no"),
		ProductCode: q.Get("product_code"),
		Page:        parseIntDefault(q.Get("page"), 1),
		Limit:       parseIntDefault(q.Get("limit"), 50),
	}

	txns, total, err := h.txnRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- GetTransaction ---

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	refID := chi.URLParam(r, "refID")
	txn, err := h.txnRepo.GetByRefID(refID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// --- GetBalance ---

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.balances.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "balance not fetched yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// --- Products ---

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("all") == ""
	products, err := h.productRepo.List(enabledOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handlers) SyncProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.txnSvc.SyncCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- Anomalies ---

func (h *Handlers) ListAnomalies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.AnomalyFilter{
		Type:  q.Get("type"),
		RefID: q.Get("ref_id"),
		Page:  parseIntDefault(q.Get("page"), 1),
		Limit: parseIntDefault(q.Get("limit"), 50),
	}

	anomalies, total, err := h.anomalyRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"anomalies": anomalies,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

func (h *Handlers) GetAnomalySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.anomalyRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.txnRepo.GetDashboardStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	anomalySummary, err := h.anomalyRepo.GetSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dashboard := map[string]any{
		"transactions": map[string]int{
			"total":   stats.Total,
			"pending": stats.Pending,
			"sukses":  stats.Sukses,
			"gagal":   stats.Gagal,
		},
		"spend": map[string]string{
			"total":  stats.SpentTotal.StringFixed(0),
			"sukses": stats.SpentSukses.StringFixed(0),
		},
		"anomalies": anomalySummary,
	}

	if snap, ok := h.balances.Current(); ok {
		dashboard["balance"] = snap
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// --- Healthz ---

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
