package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arangbara/ppob/internal/signature"
)

func TestTopupSendsSignedRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"ref_id":"REF-1","status":"Pending","message":"Sedang diproses","rc":"03","price":10500,"buyer_last_saldo":500000}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "budi-store", "dev-key-123")
	res, err := c.Topup(context.Background(), "REF-1", "TSEL10", "081234567890")
	require.NoError(t, err)

	assert.Equal(t, "budi-store", got["username"])
	assert.Equal(t, "TSEL10", got["buyer_sku_code"])
	assert.Equal(t, "081234567890", got["customer_no"])
	assert.Equal(t, "REF-1", got["ref_id"])
	assert.Equal(t, signature.Sign("budi-store", "dev-key-123", "REF-1"), got["sign"])
	assert.NotContains(t, got, "cmd")

	assert.Equal(t, "Pending", res.Status)
	assert.Equal(t, "03", res.RC)
	assert.Equal(t, "10500", res.Price.String())
	assert.Equal(t, "500000", res.BuyerLastSaldo.String())
}

func TestCheckStatusUsesStatusCmd(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"status":"Sukses","message":"Transaksi Sukses","rc":"00","sn":"SN123"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "budi-store", "dev-key-123")
	res, err := c.CheckStatus(context.Background(), "REF-1", "TSEL10", "081234567890")
	require.NoError(t, err)

	assert.Equal(t, "status", got["cmd"])
	assert.Equal(t, "Sukses", res.Status)
	assert.Equal(t, "SN123", res.SN)
}

func TestTransactionUnrecognizedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>maintenance</html>"},
		{"missing data", `{"ok":true}`},
		{"missing status", `{"data":{"message":"??"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "u", "k")
			_, err := c.Topup(context.Background(), "REF-1", "TSEL10", "081234567890")
			require.Error(t, err)
			assert.True(t, IsUnrecognized(err))
		})
	}
}

func TestTransportFailureIsNotUnrecognized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u", "k")
	_, err := c.CheckStatus(context.Background(), "REF-1", "TSEL10", "081234567890")
	require.Error(t, err)
	assert.False(t, IsUnrecognized(err))
}

func TestBalance(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cek-saldo", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"deposit":1250000}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "budi-store", "dev-key-123")
	deposit, err := c.Balance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, signature.Sign("budi-store", "dev-key-123", signature.BalanceNonce), got["sign"])
	assert.Equal(t, "1250000", deposit.String())
}

func TestPriceList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/price-list", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"product_name":"TELKOMSEL 10000","category":"Pulsa","brand":"TELKOMSEL","buyer_sku_code":"TSEL10","price":10500,"buyer_product_status":true,"seller_product_status":true},
			{"product_name":"PLN 20000","category":"PLN","brand":"PLN","buyer_sku_code":"PLN20","price":20500,"buyer_product_status":true,"seller_product_status":false}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "budi-store", "dev-key-123")
	entries, err := c.PriceList(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "TSEL10", entries[0].BuyerSKUCode)
	assert.Equal(t, "10500", entries[0].Price.String())
	assert.True(t, entries[0].BuyerProductStatus)
	assert.False(t, entries[1].SellerProductStatus)
}
