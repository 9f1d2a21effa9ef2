package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one purchasable SKU from the gateway catalog. CostPrice is what
// the gateway charges us; SellingPrice is what the storefront charges the
// customer.
type Product struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Enabled      bool            `json:"enabled"`
	SyncedAt     time.Time       `json:"synced_at"`
}
