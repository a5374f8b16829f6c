package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/model"
)

// generateSampleVouchers writes a voucher import file for local testing.
// Load it with: storefront import-vouchers data/vouchers/sample.jsonl.gz
//
// SUMMER10    10% off, capped at 50000, minimum order 500000
// FLAT20K     20000 off any order
// SHOES15     15% off, shoes category only
// FIRST100    10% off, limited to 100 uses
// BROKEN      invalid record, reported as failed
func main() {
	dataDir := "data/vouchers"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	expiry := start.AddDate(0, 3, 0)

	vouchers := []model.VoucherRequest{
		{
			Code:          "SUMMER10",
			Description:   "Summer sale",
			DiscountType:  model.VoucherPercentage,
			DiscountValue: 10,
			MaxDiscount:   ptr(int64(50000)),
			MinOrderValue: 500000,
			StartDate:     start,
			ExpiryDate:    expiry,
		},
		{
			Code:          "FLAT20K",
			Description:   "20k off",
			DiscountType:  model.VoucherFixed,
			DiscountValue: 20000,
			StartDate:     start,
			ExpiryDate:    expiry,
		},
		{
			Code:                 "SHOES15",
			Description:          "15% off shoes",
			DiscountType:         model.VoucherPercentage,
			DiscountValue:        15,
			StartDate:            start,
			ExpiryDate:           expiry,
			ApplicableCategories: []string{"shoes"},
		},
		{
			Code:          "FIRST100",
			Description:   "First hundred customers",
			DiscountType:  model.VoucherPercentage,
			DiscountValue: 10,
			StartDate:     start,
			ExpiryDate:    expiry,
			UsageLimit:    ptr(100),
		},
		{
			Code:          "BROKEN",
			DiscountType:  model.VoucherPercentage,
			DiscountValue: 150,
			StartDate:     start,
			ExpiryDate:    expiry,
		},
	}

	filePath := filepath.Join(dataDir, "sample.jsonl.gz")
	if err := createVoucherFile(filePath, vouchers); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d vouchers\n", filePath, len(vouchers))
}

func createVoucherFile(filePath string, vouchers []model.VoucherRequest) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for i := range vouchers {
		if err := enc.Encode(&vouchers[i]); err != nil {
			return fmt.Errorf("failed to write voucher: %w", err)
		}
	}

	return nil
}

func ptr[T any](v T) *T {
	return &v
}
