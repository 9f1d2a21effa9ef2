// Generates testdata/products.json: a small Digiflazz-style prepaid catalog
// used to seed an empty database in development.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arangbara/ppob/internal/domain"
	"github.com/arangbara/ppob/internal/pricing"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	type skuGroup struct {
		category string
		brand    string
		prefix   string
		baseCost int64
		step     int64
		count    int
	}

	groups := []skuGroup{
		{category: "Pulsa", brand: "TELKOMSEL", prefix: "TSEL", baseCost: 5500, step: 5000, count: 6},
		{category: "Pulsa", brand: "XL", prefix: "XL", baseCost: 5400, step: 5000, count: 5},
		{category: "Data", brand: "INDOSAT", prefix: "ISATDATA", baseCost: 11000, step: 9000, count: 5},
		{category: "PLN", brand: "PLN", prefix: "PLN", baseCost: 20500, step: 30000, count: 5},
		{category: "E-Money", brand: "GO PAY", prefix: "GOPAY", baseCost: 10500, step: 15000, count: 4},
	}

	markup := decimal.NewFromInt(4)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var products []domain.Product
	for _, g := range groups {
		for i := 0; i < g.count; i++ {
			cost := decimal.NewFromInt(g.baseCost + int64(i)*g.step)
			denom := (g.baseCost + int64(i)*g.step) / 1000 * 1000
			p := domain.Product{
				Code:         fmt.Sprintf("%s%d", g.prefix, denom/1000),
				Name:         fmt.Sprintf("%s %d", g.brand, denom),
				Category:     g.category,
				Brand:        g.brand,
				CostPrice:    cost,
				SellingPrice: pricing.SellingPrice(cost, g.category, markup),
				// A handful of products are disabled upstream at any time.
				Enabled:  rng.Intn(10) > 0,
				SyncedAt: now,
			}
			products = append(products, p)
		}
	}

	out, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		panic(err)
	}

	path := filepath.Join(baseDir, "products.json")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d products to %s\n", len(products), path)
}

func findTestdataDir() string {
	candidates := []string{"testdata", filepath.Join("..", "..", "testdata"), "."}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && fi.IsDir() {
			return c
		}
	}
	return "."
}
