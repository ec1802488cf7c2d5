package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

func main() {
	filePath := flag.String("file", "", "path to the products .xlsx file")
	sheet := flag.String("sheet", "", "sheet name (default: first sheet)")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Usage: go run ./cmd/seed -file products.xlsx [-sheet Sheet1] [-yes]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "console", EnableColor: true})

	f, err := excelize.OpenFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to open XLSX file: %v", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", *filePath)
	result, err := readProducts(f, *sheet, cfg.Payment.Stripe.Currency)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	for _, skipped := range result.Skipped {
		fmt.Printf("  skipped row %d: %s\n", skipped.Row, skipped.Reason)
	}
	fmt.Printf("Products to import: %d (skipped %d)\n", len(result.Products), len(result.Skipped))

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productService := service.NewProductService(repository.NewProductRepository(db.GetDB()), cfg.Payment.Stripe.Currency)
	created, updated, err := importProducts(productService, result.Products)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("  created: %d\n  updated: %d\n", created, updated)
}
