package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arangbara/ppob/internal/api"
	"github.com/arangbara/ppob/internal/balance"
	"github.com/arangbara/ppob/internal/config"
	"github.com/arangbara/ppob/internal/domain"
	"github.com/arangbara/ppob/internal/gateway"
	"github.com/arangbara/ppob/internal/reconcile"
	"github.com/arangbara/ppob/internal/repository"
	"github.com/arangbara/ppob/internal/transaction"
)

func main() {
	cfg := config.Load()

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	txnRepo := repository.NewTransactionRepo(db)
	productRepo := repository.NewProductRepo(db)
	anomalyRepo := repository.NewAnomalyRepo(db)

	// Gateway client and services.
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayUsername, cfg.GatewayAPIKey)
	txnSvc := transaction.NewService(gw, txnRepo, productRepo, cfg.MarkupPercent)
	poller := reconcile.NewPoller(gw, txnRepo, anomalyRepo, cfg.PollInterval, cfg.PollConcurrency)
	balances := balance.NewChecker(gw, cfg.BalanceInterval)

	// Seed the catalog if it is empty.
	count, err := productRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count products: %v", err)
	}
	if count == 0 {
		log.Println("Catalog is empty, seeding products from testdata...")
		if err := seedProducts(productRepo); err != nil {
			log.Printf("WARNING: Failed to seed products: %v", err)
		}
	} else {
		log.Printf("Catalog already has %d products, skipping seed", count)
	}

	// Background jobs stop when ctx is canceled.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)
	go balances.Run(ctx)

	router := api.NewRouter(txnSvc, txnRepo, productRepo, anomalyRepo, balances, cfg.CORSOrigin)

	log.Printf("PPOB Transaction Lifecycle Service")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/transactions")
	log.Printf("  GET    /api/v1/transactions")
	log.Printf("  GET    /api/v1/transactions/{refID}")
	log.Printf("  GET    /api/v1/balance")
	log.Printf("  GET    /api/v1/products")
	log.Printf("  POST   /api/v1/products/sync")
	log.Printf("  GET    /api/v1/anomalies")
	log.Printf("  GET    /api/v1/anomalies/summary")
	log.Printf("  GET    /api/v1/dashboard")

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

func seedProducts(repo *repository.ProductRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/products.json",
		filepath.Join(".", "testdata", "products.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "products.json"),
			filepath.Join(dir, "..", "..", "testdata", "products.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded products from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find products.json in any candidate path: %w", loadErr)
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("unmarshal products: %w", err)
	}

	now := time.Now()
	seeded := 0
	for i := range products {
		p := &products[i]
		if p.SyncedAt.IsZero() {
			p.SyncedAt = now
		}
		if err := repo.Upsert(p); err != nil {
			return fmt.Errorf("upsert %s: %w", p.Code, err)
		}
		seeded++
	}

	log.Printf("Seeded %d products", seeded)
	return nil
}
