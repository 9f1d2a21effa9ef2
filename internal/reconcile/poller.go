// Package reconcile resolves pending transactions against the gateway. Each
// pending record follows a one-way state machine: Pending may transition at
// most once to Sukses or Gagal, and a terminal status already on record is
// never overwritten.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/arangbara/ppob/internal/domain"
	"github.com/arangbara/ppob/internal/gateway"
	"github.com/arangbara/ppob/internal/repository"
)

// Gateway is the slice of the gateway client the poller needs.
type Gateway interface {
	CheckStatus(ctx context.Context, refID, productCode, customerNo string) (*gateway.StatusResult, error)
}

// Outcome classifies what happened to one pending record in one cycle.
type Outcome string

const (
	// OutcomeResolved: a terminal status was written.
	OutcomeResolved Outcome = "resolved"
	// OutcomeStillPending: the gateway answered but the transaction has not
	// settled yet.
	OutcomeStillPending Outcome = "still_pending"
	// OutcomeConflict: the gateway reported a terminal status contradicting
	// one already stored. The stored value wins; an anomaly is recorded.
	OutcomeConflict Outcome = "conflict"
	// OutcomeSkipped: transient or unrecognized failure; the record is left
	// untouched and retried next cycle.
	OutcomeSkipped Outcome = "skipped"
)

// ItemResult is the per-record result of a reconciliation cycle. Failures
// are values here, not control flow: one item's error never aborts the rest
// of the batch.
type ItemResult struct {
	RefID   string
	Outcome Outcome
	Err     error
}

// Poller periodically queries the gateway for every pending transaction and
// applies the answers to the store.
type Poller struct {
	gw          Gateway
	txnRepo     *repository.TransactionRepo
	anomalyRepo *repository.AnomalyRepo
	interval    time.Duration
	concurrency int
}

func NewPoller(gw Gateway, txnRepo *repository.TransactionRepo, anomalyRepo *repository.AnomalyRepo, interval time.Duration, concurrency int) *Poller {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Poller{
		gw:          gw,
		txnRepo:     txnRepo,
		anomalyRepo: anomalyRepo,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Run executes one eager cycle, then repeats on the configured interval
// until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	p.runCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[reconcile] Stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Poller) runCycle(ctx context.Context) {
	results, err := p.ReconcileOnce(ctx)
	if err != nil {
		log.Printf("[reconcile] WARNING: cycle skipped: %v", err)
		return
	}

	counts := map[Outcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	if len(results) > 0 {
		log.Printf("[reconcile] Cycle done: pending=%d resolved=%d still_pending=%d conflict=%d skipped=%d",
			len(results), counts[OutcomeResolved], counts[OutcomeStillPending],
			counts[OutcomeConflict], counts[OutcomeSkipped])
	}
}

// ReconcileOnce processes every pending transaction and returns a result per
// record. The batch fans out over at most p.concurrency goroutines.
func (p *Poller) ReconcileOnce(ctx context.Context) ([]ItemResult, error) {
	pending, err := p.txnRepo.ListPending()
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	results := make([]ItemResult, len(pending))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i := range pending {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.reconcileItem(ctx, &pending[i])
		}(i)
	}
	wg.Wait()

	return results, nil
}

func (p *Poller) reconcileItem(ctx context.Context, txn *domain.Transaction) ItemResult {
	res, err := p.gw.CheckStatus(ctx, txn.RefID, txn.ProductCode, txn.CustomerNo)
	if err != nil {
		if gateway.IsUnrecognized(err) {
			// No clear answer is not evidence of failure: leave the record
			// alone and make the malformed payload operator-visible.
			p.recordAnomaly(&domain.Anomaly{
				ID:           anomalyID("UR", txn.RefID),
				Type:         domain.AnomalyUnrecognizedResponse,
				RefID:        txn.RefID,
				StoredStatus: string(txn.Status),
				Detail:       err.Error(),
				DetectedAt:   time.Now(),
			})
		}
		log.Printf("[reconcile] WARNING: %s: %v", txn.RefID, err)
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeSkipped, Err: err}
	}

	status, ok := domain.ParseStatus(res.Status)
	if !ok {
		err := fmt.Errorf("unknown status %q", res.Status)
		log.Printf("[reconcile] WARNING: %s: %v", txn.RefID, err)
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeSkipped, Err: err}
	}

	update := domain.StatusUpdate{
		Status:         status,
		Message:        res.Message,
		RC:             res.RC,
		SN:             res.SN,
		BuyerLastSaldo: res.BuyerLastSaldo,
	}

	applied, err := p.txnRepo.ApplyStatusUpdate(txn.RefID, update, time.Now())
	if err != nil {
		log.Printf("[reconcile] WARNING: %s: %v", txn.RefID, err)
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeSkipped, Err: err}
	}

	if applied {
		if status.Terminal() {
			log.Printf("[reconcile] Resolved %s: status=%s rc=%s sn=%s", txn.RefID, status, res.RC, res.SN)
			return ItemResult{RefID: txn.RefID, Outcome: OutcomeResolved}
		}
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeStillPending}
	}

	// The guarded update refused to touch the row: a concurrent write got
	// there first. Re-read to tell a benign race from a real conflict.
	current, err := p.txnRepo.GetByRefID(txn.RefID)
	if err != nil {
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeSkipped, Err: err}
	}

	if current.Status == status {
		// Same terminal conclusion, applied twice. Idempotent, nothing to do.
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeResolved}
	}
	if !status.Terminal() {
		// The row settled between our read and this write while the gateway
		// still answered Pending. Not a conflict.
		return ItemResult{RefID: txn.RefID, Outcome: OutcomeStillPending}
	}

	log.Printf("[reconcile] ANOMALY: %s stored=%s but gateway reports %s; keeping stored value",
		txn.RefID, current.Status, status)
	p.recordAnomaly(&domain.Anomaly{
		ID:             anomalyID("TC", txn.RefID),
		Type:           domain.AnomalyTerminalConflict,
		RefID:          txn.RefID,
		StoredStatus:   string(current.Status),
		ReportedStatus: string(status),
		Detail: fmt.Sprintf("gateway reported %s for a transaction already recorded as %s (rc=%s message=%q)",
			status, current.Status, res.RC, res.Message),
		DetectedAt: time.Now(),
	})
	return ItemResult{RefID: txn.RefID, Outcome: OutcomeConflict}
}

func (p *Poller) recordAnomaly(a *domain.Anomaly) {
	if err := p.anomalyRepo.Insert(a); err != nil {
		log.Printf("[reconcile] WARNING: failed to persist anomaly for %s: %v", a.RefID, err)
	}
}

func anomalyID(kind, refID string) string {
	return fmt.Sprintf("ANOM-%s-%s-%d", kind, refID, time.Now().UnixNano())
}
