// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/domain/ledger"
	"stocklot/internal/domain/purchase"
	"stocklot/internal/infrastructure/storage/postgres"
	"stocklot/internal/infrastructure/storage/postgres/catalog_repo"
	"stocklot/internal/infrastructure/storage/postgres/document_repo"
	"stocklot/internal/infrastructure/storage/postgres/inventory_repo"
	"stocklot/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	tenantID := os.Getenv("SEED_TENANT_ID")
	if tenantID == "" {
		tenantID = "demo"
	}

	txManager := postgres.NewTxManager(pool)
	catalogRepo := catalog_repo.NewProductRepo(txManager)

	products, err := seedProducts(ctx, catalogRepo, tenantID)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}
	log.Infow("products seeded", "tenant", tenantID, "count", len(products))

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedPurchases(ctx, txManager, catalogRepo, tenantID, products, log); err != nil {
			log.Fatalw("failed to seed purchases", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedProducts upserts a small demo catalog. Re-running the seeder updates
// the same rows instead of duplicating them.
func seedProducts(ctx context.Context, repo *catalog_repo.ProductRepo, tenantID string) ([]catalog.Product, error) {
	products := []catalog.Product{
		{ID: id.New(), TenantID: tenantID, SKU: "MILK-1L", Name: "Whole Milk 1L", Unit: "pcs", CostPrice: 89, SellingPrice: 129},
		{ID: id.New(), TenantID: tenantID, SKU: "YOG-500", Name: "Greek Yogurt 500g", Unit: "pcs", CostPrice: 145, SellingPrice: 219},
		{ID: id.New(), TenantID: tenantID, SKU: "CHS-GDA", Name: "Gouda Cheese", Unit: "kg", CostPrice: 780, SellingPrice: 1150},
		{ID: id.New(), TenantID: tenantID, SKU: "RICE-5K", Name: "Rice 5kg", Unit: "pcs", CostPrice: 420, SellingPrice: 599},
	}

	// Reuse existing rows when the SKU is already present so batches created
	// by earlier runs keep pointing at the same products.
	existing, err := repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	bySKU := make(map[string]catalog.Product, len(existing))
	for _, p := range existing {
		bySKU[p.SKU] = p
	}

	for i := range products {
		if prev, ok := bySKU[products[i].SKU]; ok {
			products[i].ID = prev.ID
		}
		if err := repo.Upsert(ctx, &products[i]); err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", products[i].SKU, err)
		}
	}
	return products, nil
}

// seedPurchases receives demo stock through the purchase orchestrator so
// batches, movements and document numbers all come from the same code path
// as production traffic.
func seedPurchases(
	ctx context.Context,
	txManager *postgres.TxManager,
	catalogRepo *catalog_repo.ProductRepo,
	tenantID string,
	products []catalog.Product,
	log *logger.Logger,
) error {
	batchSvc := batch.NewService(inventory_repo.NewBatchRepo(txManager))
	ledgerSvc := ledger.NewService(inventory_repo.NewLedgerRepo(txManager))
	purchaseSvc := purchase.NewService(
		document_repo.NewPurchaseRepo(txManager),
		catalogRepo,
		batchSvc,
		ledgerSvc,
		postgres.NewSequenceGenerator(txManager),
		nil,
	)

	expiry := func(days int) *time.Time {
		t := time.Now().UTC().AddDate(0, 0, days).Truncate(24 * time.Hour)
		return &t
	}

	inputs := []purchase.CreateInput{
		{
			SupplierName: "Dairy Direct Ltd",
			Lines: []purchase.LineInput{
				{ProductID: products[0].ID, Quantity: types.NewQuantityFromInt(40), UnitCost: 89, ExpiryDate: expiry(7), SupplierRef: "DD-1042"},
				{ProductID: products[1].ID, Quantity: types.NewQuantityFromInt(24), UnitCost: 145, ExpiryDate: expiry(14), SupplierRef: "DD-1042"},
			},
		},
		{
			SupplierName: "Wholesale Foods",
			Lines: []purchase.LineInput{
				{ProductID: products[2].ID, Quantity: types.NewQuantityFromInt(12), UnitCost: 780, ExpiryDate: expiry(45)},
				{ProductID: products[3].ID, Quantity: types.NewQuantityFromInt(60), UnitCost: 420},
			},
		},
	}

	for _, in := range inputs {
		doc, err := purchaseSvc.Create(ctx, tenantID, in)
		if err != nil {
			return fmt.Errorf("create purchase from %s: %w", in.SupplierName, err)
		}
		log.Infow("purchase seeded", "number", doc.Number, "supplier", doc.SupplierName, "lines", len(doc.Lines))
	}
	return nil
}
