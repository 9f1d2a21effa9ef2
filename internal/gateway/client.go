// Package gateway is the HTTP client for the prepaid/bill-payment gateway.
// Every request is authenticated with the md5 signature scheme from the
// signature package; responses are decoded into a recognized result or
// rejected with UnrecognizedError so callers can treat "no clear answer" as
// a first-class branch instead of a zero-valued struct.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arangbara/ppob/internal/signature"
)

// Client talks to the gateway's REST endpoints.
type Client struct {
	baseURL  string
	username string
	apiKey   string
	http     *http.Client
}

func NewClient(baseURL, username, apiKey string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusResult is a recognized transaction response from the gateway.
type StatusResult struct {
	Status         string
	Message        string
	RC             string
	SN             string
	Price          decimal.Decimal
	BuyerLastSaldo decimal.Decimal
}

// PriceEntry is one row of the gateway's product catalog.
type PriceEntry struct {
	ProductName         string          `json:"product_name"`
	Category            string          `json:"category"`
	Brand               string          `json:"brand"`
	BuyerSKUCode        string          `json:"buyer_sku_code"`
	Price               decimal.Decimal `json:"price"`
	BuyerProductStatus  bool            `json:"buyer_product_status"`
	SellerProductStatus bool            `json:"seller_product_status"`
}

type topupRequest struct {
	Username     string `json:"username"`
	BuyerSKUCode string `json:"buyer_sku_code"`
	CustomerNo   string `json:"customer_no"`
	RefID        string `json:"ref_id"`
	Sign         string `json:"sign"`
	Cmd          string `json:"cmd,omitempty"`
}

type transactionData struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	RC             string          `json:"rc"`
	SN             string          `json:"sn"`
	Price          decimal.Decimal `json:"price"`
	BuyerLastSaldo decimal.Decimal `json:"buyer_last_saldo"`
}

type transactionEnvelope struct {
	Data *transactionData `json:"data"`
}

// Topup submits a purchase request for refID. The gateway settles
// asynchronously; the returned status is frequently "Pending".
func (c *Client) Topup(ctx context.Context, refID, productCode, customerNo string) (*StatusResult, error) {
	req := topupRequest{
		Username:     c.username,
		BuyerSKUCode: productCode,
		CustomerNo:   customerNo,
		RefID:        refID,
		Sign:         signature.Sign(c.username, c.apiKey, refID),
	}
	return c.postTransaction(ctx, req)
}

// CheckStatus queries the current status of a previously submitted refID.
// The signature is recomputed over the same ref_id as the original submit.
func (c *Client) CheckStatus(ctx context.Context, refID, productCode, customerNo string) (*StatusResult, error) {
	req := topupRequest{
		Username:     c.username,
		BuyerSKUCode: productCode,
		CustomerNo:   customerNo,
		RefID:        refID,
		Sign:         signature.Sign(c.username, c.apiKey, refID),
		Cmd:          "status",
	}
	return c.postTransaction(ctx, req)
}

func (c *Client) postTransaction(ctx context.Context, req topupRequest) (*StatusResult, error) {
	raw, err := c.post(ctx, "/transaction", req)
	if err != nil {
		return nil, err
	}

	var env transactionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil || env.Data.Status == "" {
		return nil, &UnrecognizedError{Raw: raw}
	}

	d := env.Data
	return &StatusResult{
		Status:         d.Status,
		Message:        d.Message,
		RC:             d.RC,
		SN:             d.SN,
		Price:          d.Price,
		BuyerLastSaldo: d.BuyerLastSaldo,
	}, nil
}

type balanceRequest struct {
	Cmd      string `json:"cmd"`
	Username string `json:"username"`
	Sign     string `json:"sign"`
}

type balanceEnvelope struct {
	Data *struct {
		Deposit decimal.Decimal `json:"deposit"`
	} `json:"data"`
}

// Balance fetches the current account deposit. The signature nonce is a
// fixed literal since the call is not tied to a transaction.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	req := balanceRequest{
		Cmd:      "deposit",
		Username: c.username,
		Sign:     signature.Sign(c.username, c.apiKey, signature.BalanceNonce),
	}

	raw, err := c.post(ctx, "/cek-saldo", req)
	if err != nil {
		return decimal.Zero, err
	}

	var env balanceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		return decimal.Zero, &UnrecognizedError{Raw: raw}
	}
	return env.Data.Deposit, nil
}

type priceListRequest struct {
	Cmd      string `json:"cmd"`
	Username string `json:"username"`
	Sign     string `json:"sign"`
}

type priceListEnvelope struct {
	Data []PriceEntry `json:"data"`
}

// PriceList fetches the prepaid product catalog.
func (c *Client) PriceList(ctx context.Context) ([]PriceEntry, error) {
	req := priceListRequest{
		Cmd:      "prepaid",
		Username: c.username,
		Sign:     signature.Sign(c.username, c.apiKey, signature.PriceListNonce),
	}

	raw, err := c.post(ctx, "/price-list", req)
	if err != nil {
		return nil, err
	}

	var env priceListEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		return nil, &UnrecognizedError{Raw: raw}
	}
	return env.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// The gateway reports business failures in the body with a 200; anything
	// else HTTP-level is a transport failure.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("post %s: unexpected status %d: %s", path, resp.StatusCode, truncate(raw, 200))
	}
	return raw, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
