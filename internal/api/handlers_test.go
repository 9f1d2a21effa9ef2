package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangbara/ppob/internal/balance"
	"github.com/arangbara/ppob/internal/domain"
	"github.com/arangbara/ppob/internal/gateway"
	"github.com/arangbara/ppob/internal/repository"
	"github.com/arangbara/ppob/internal/transaction"
)

type fakeGateway struct {
	topupResult *gateway.StatusResult
	topupErr    error
	deposit     decimal.Decimal
}

func (f *fakeGateway) Topup(ctx context.Context, refID, productCode, customerNo string) (*gateway.StatusResult, error) {
	if f.topupErr != nil {
		return nil, f.topupErr
	}
	return f.topupResult, nil
}

func (f *fakeGateway) PriceList(ctx context.Context) ([]gateway.PriceEntry, error) {
	return nil, nil
}

func (f *fakeGateway) Balance(ctx context.Context) (decimal.Decimal, error) {
	return f.deposit, nil
}

type apiFixture struct {
	router  http.Handler
	txnRepo *repository.TransactionRepo
	gw      *fakeGateway
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	txnRepo := repository.NewTransactionRepo(db)
	productRepo := repository.NewProductRepo(db)
	anomalyRepo := repository.NewAnomalyRepo(db)

	require.NoError(t, productRepo.Upsert(&domain.Product{
		Code:         "PLN10",
		Name:         "PLN 10000",
		Category:     "PLN",
		Brand:        "PLN",
		CostPrice:    decimal.NewFromInt(10500),
		SellingPrice: decimal.NewFromInt(10920),
		Enabled:      true,
		SyncedAt:     time.Now(),
	}))

	gw := &fakeGateway{
		topupResult: &gateway.StatusResult{Status: "Pending", Message: "Sedang diproses", RC: "03"},
		deposit:     decimal.NewFromInt(1250000),
	}
	txnSvc := transaction.NewService(gw, txnRepo, productRepo, decimal.NewFromInt(4))

	balances := balance.NewChecker(gw, time.Hour)
	balances.Refresh(context.Background())

	return &apiFixture{
		router:  NewRouter(txnSvc, txnRepo, productRepo, anomalyRepo, balances, "http://localhost:5173"),
		txnRepo: txnRepo,
		gw:      gw,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitTransactionEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions",
		`{"customer_no":"081234567890","product_code":"PLN10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var txn domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txn))
	assert.NotEmpty(t, txn.RefID)
	assert.Equal(t, domain.StatusPending, txn.Status)

	// The record is immediately visible on the history endpoint.
	rec = f.do(t, http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestSubmitTransactionValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing customer_no", `{"product_code":"PLN10"}`, http.StatusBadRequest},
		{"missing product_code", `{"customer_no":"081234567890"}`, http.StatusBadRequest},
		{"unknown product", `{"customer_no":"081234567890","product_code":"NOPE"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/transactions", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestGetTransactionEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions",
		`{"customer_no":"081234567890","product_code":"PLN10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var txn domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txn))

	rec = f.do(t, http.MethodGet, "/api/v1/transactions/"+txn.RefID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/transactions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBalanceEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap balance.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "1250000", snap.Deposit.String())
	assert.False(t, snap.Stale)
}

func TestListProductsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []domain.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "PLN10", resp.Products[0].Code)
}

func TestDashboardEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions",
		`{"customer_no":"081234567890","product_code":"PLN10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dash struct {
		Transactions map[string]int `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 1, dash.Transactions["total"])
	assert.Equal(t, 1, dash.Transactions["pending"])
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
