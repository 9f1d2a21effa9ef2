// Package balance tracks the gateway account deposit. The checker owns the
// snapshot; callers read through Current and never see a gateway error —
// a failed refresh just marks the last known value as stale.
package balance

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the slice of the gateway client the checker needs.
type Gateway interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// Snapshot is the last known account balance.
type Snapshot struct {
	Deposit   decimal.Decimal `json:"deposit"`
	FetchedAt time.Time       `json:"fetched_at"`
	// Stale is true when the most recent refresh attempt failed and Deposit
	// is carried over from an earlier success.
	Stale bool `json:"stale"`
}

// Checker periodically refreshes the balance snapshot.
type Checker struct {
	gw       Gateway
	interval time.Duration

	mu      sync.Mutex
	snap    Snapshot
	fetched bool
}

func NewChecker(gw Gateway, interval time.Duration) *Checker {
	return &Checker{gw: gw, interval: interval}
}

// Run refreshes once eagerly, then on the configured interval until ctx is
// canceled.
func (c *Checker) Run(ctx context.Context) {
	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[balance] Stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh queries the gateway once. On failure the previous deposit value is
// preserved and the snapshot is flagged stale.
func (c *Checker) Refresh(ctx context.Context) {
	deposit, err := c.gw.Balance(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Printf("[balance] WARNING: refresh failed, keeping last known value: %v", err)
		c.snap.Stale = true
		return
	}

	c.snap = Snapshot{Deposit: deposit, FetchedAt: time.Now(), Stale: false}
	c.fetched = true
}

// Current returns the last known snapshot. The second return value is false
// until the first successful refresh.
func (c *Checker) Current() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.fetched
}
