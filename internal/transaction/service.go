// Package transaction owns the purchase side of the lifecycle: submitting
// new attempts to the gateway and keeping the product catalog in sync.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arangbara/ppob/internal/domain"
	"github.com/arangbara/ppob/internal/gateway"
	"github.com/arangbara/ppob/internal/pricing"
	"github.com/arangbara/ppob/internal/repository"
)

var (
	ErrEmptyCustomerNo = errors.New("customer_no must not be empty")
	ErrUnknownProduct  = errors.New("unknown product code")
	ErrProductDisabled = errors.New("product is currently disabled")
)

// Gateway is the slice of the gateway client the service needs.
type Gateway interface {
	Topup(ctx context.Context, refID, productCode, customerNo string) (*gateway.StatusResult, error)
	PriceList(ctx context.Context) ([]gateway.PriceEntry, error)
}

// Service submits purchase attempts and syncs the catalog. One row is
// written to the transaction store per acknowledged submission; transport
// failures are surfaced to the caller without retry, since a resubmission
// under a fresh ref_id against a gateway that received the first request
// risks a double charge.
type Service struct {
	gw            Gateway
	txnRepo       *repository.TransactionRepo
	productRepo   *repository.ProductRepo
	markupPercent decimal.Decimal
}

func NewService(gw Gateway, txnRepo *repository.TransactionRepo, productRepo *repository.ProductRepo, markupPercent decimal.Decimal) *Service {
	return &Service{
		gw:            gw,
		txnRepo:       txnRepo,
		productRepo:   productRepo,
		markupPercent: markupPercent,
	}
}

// Submit sends one purchase request to the gateway and persists the initial
// record. The ref_id is a fresh UUIDv4; the store's primary key rejects the
// astronomically unlikely collision so a duplicate can never double-charge.
func (s *Service) Submit(ctx context.Context, customerNo, productCode string) (*domain.Transaction, error) {
	customerNo = strings.TrimSpace(customerNo)
	if customerNo == "" {
		return nil, ErrEmptyCustomerNo
	}

	product, err := s.productRepo.GetByCode(productCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownProduct
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if !product.Enabled {
		return nil, ErrProductDisabled
	}

	refID := uuid.NewString()

	res, err := s.gw.Topup(ctx, refID, productCode, customerNo)
	if err != nil {
		// No record is created: either the gateway never received the
		// request, or it answered with something we cannot interpret. The
		// caller retries manually with a fresh attempt.
		return nil, fmt.Errorf("submit %s: %w", refID, err)
	}

	status, ok := domain.ParseStatus(res.Status)
	if !ok {
		return nil, fmt.Errorf("submit %s: %w", refID, &gateway.UnrecognizedError{Raw: []byte(res.Status)})
	}

	now := time.Now()
	txn := &domain.Transaction{
		RefID:          refID,
		CustomerNo:     customerNo,
		ProductCode:    productCode,
		Status:         status,
		Message:        res.Message,
		RC:             res.RC,
		SN:             res.SN,
		Price:          res.Price,
		BuyerLastSaldo: res.BuyerLastSaldo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if txn.Price.IsZero() {
		txn.Price = product.SellingPrice
	}

	if err := s.txnRepo.Insert(txn); err != nil {
		if errors.Is(err, repository.ErrDuplicateRef) {
			// The gateway treats a repeated ref_id as the same logical
			// transaction, so the earlier record stands.
			log.Printf("[submit] WARNING: ref_id collision on %s, keeping first record", refID)
			return nil, err
		}
		return nil, fmt.Errorf("persist %s: %w", refID, err)
	}

	log.Printf("[submit] Created %s: product=%s customer=%s status=%s", refID, productCode, customerNo, status)
	return txn, nil
}

// SyncResult summarises one catalog sync.
type SyncResult struct {
	Upserted int `json:"upserted"`
	Disabled int `json:"disabled"`
}

// SyncCatalog pulls the gateway price list, reprices every entry, and
// disables products the gateway no longer offers.
func (s *Service) SyncCatalog(ctx context.Context) (*SyncResult, error) {
	entries, err := s.gw.PriceList(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch price list: %w", err)
	}

	started := time.Now()
	upserted := 0
	for _, e := range entries {
		enabled := e.BuyerProductStatus && e.SellerProductStatus
		p := &domain.Product{
			Code:         e.BuyerSKUCode,
			Name:         e.ProductName,
			Category:     e.Category,
			Brand:        e.Brand,
			CostPrice:    e.Price,
			SellingPrice: pricing.SellingPrice(e.Price, e.Category, s.markupPercent),
			Enabled:      enabled,
			SyncedAt:     time.Now(),
		}
		if err := s.productRepo.Upsert(p); err != nil {
			log.Printf("[catalog] WARNING: upsert %s failed: %v", e.BuyerSKUCode, err)
			continue
		}
		upserted++
	}

	disabled, err := s.productRepo.DisableStale(started)
	if err != nil {
		return nil, fmt.Errorf("disable stale: %w", err)
	}

	log.Printf("[catalog] Synced %d products (%d disabled as stale)", upserted, disabled)
	return &SyncResult{Upserted: upserted, Disabled: disabled}, nil
}
