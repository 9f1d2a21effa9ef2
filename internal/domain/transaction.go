package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "Pending"
	StatusSukses  TransactionStatus = "Sukses"
	StatusGagal   TransactionStatus = "Gagal"
)

// Terminal reports whether no further transition is expected from s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusSukses || s == StatusGagal
}

// ParseStatus maps a gateway status string onto a known status. The second
// return value is false for anything outside the tri-state set.
func ParseStatus(s string) (TransactionStatus, bool) {
	switch TransactionStatus(s) {
	case StatusPending, StatusSukses, StatusGagal:
		return TransactionStatus(s), true
	}
	return "", false
}

// Transaction is one purchase attempt against the gateway, keyed by the
// client-generated ref_id. The ref_id is the idempotency boundary: the
// gateway and the store both treat a repeated ref_id as the same logical
// transaction.
type Transaction struct {
	RefID          string            `json:"ref_id"`
	CustomerNo     string            `json:"customer_no"`
	ProductCode    string            `json:"product_code"`
	Status         TransactionStatus `json:"status"`
	Message        string            `json:"message"`
	RC             string            `json:"rc"`
	SN             string            `json:"sn,omitempty"`
	Price          decimal.Decimal   `json:"price"`
	BuyerLastSaldo decimal.Decimal   `json:"buyer_last_saldo"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// StatusUpdate carries the fields a reconciliation pass may apply to a
// pending transaction. Terminal statuses never regress once written.
type StatusUpdate struct {
	Status         TransactionStatus
	Message        string
	RC             string
	SN             string
	BuyerLastSaldo decimal.Decimal
}
