package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sikafe/rentpay/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Billing window: 2025 rent cycle, January through March.
	startDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dayRange := 90

	providers := []domain.Provider{
		domain.ProviderOrangeMoney,
		domain.ProviderMTNMoMo,
		domain.ProviderWave,
		domain.ProviderMoov,
	}

	var properties []domain.Property
	var leases []domain.Lease
	var payments []domain.Payment

	for i := 1; i <= 40; i++ {
		prop := domain.Property{
			ID:         fmt.Sprintf("PROP-%03d", i),
			OwnerID:    fmt.Sprintf("LL-%03d", (i%15)+1),
			OwnerPhone: fmt.Sprintf("+2250701%06d", rng.Intn(1000000)),
			Label:      fmt.Sprintf("Appartement %d, Cocody", i),
		}
		properties = append(properties, prop)

		lease := domain.Lease{
			ID:         fmt.Sprintf("LEASE-%03d", i),
			PropertyID: prop.ID,
			TenantID:   fmt.Sprintf("TN-%03d", i),
			RentAmount: int64(75000 + rng.Intn(8)*25000),
		}
		// A third of leases carry an explicit landlord distinct from the
		// property owner (managed units); the rest resolve through the
		// property.
		if i%3 == 0 {
			lease.LandlordID = fmt.Sprintf("LL-M%03d", i)
			lease.LandlordPhone = fmt.Sprintf("+2250501%06d", rng.Intn(1000000))
		}
		leases = append(leases, lease)

		// One to three monthly payment obligations per lease.
		months := 1 + rng.Intn(3)
		for m := 0; m < months; m++ {
			day := rng.Intn(dayRange)
			createdAt := startDate.AddDate(0, 0, day).Add(
				time.Duration(rng.Intn(24)) * time.Hour,
			)

			p := domain.Payment{
				ID:                   fmt.Sprintf("PAY-%03d-%d", i, m+1),
				TransactionReference: fmt.Sprintf("ref-%03d-%d", i, m+1),
				Status:               domain.StatusPending,
				Amount:               lease.RentAmount,
				Currency:             "XOF",
				TenantID:             lease.TenantID,
				LeaseID:              lease.ID,
				Provider:             providers[rng.Intn(len(providers))],
				PayerPhone:           fmt.Sprintf("+2250102%06d", rng.Intn(1000000)),
				CreatedAt:            createdAt,
				UpdatedAt:            createdAt,
			}
			payments = append(payments, p)
		}
	}

	seed := map[string]any{
		"properties": properties,
		"leases":     leases,
		"payments":   payments,
	}
	writeJSONFile(filepath.Join(baseDir, "ledger.json"), seed)
	fmt.Printf("Generated %d properties, %d leases, %d payments -> ledger.json\n",
		len(properties), len(leases), len(payments))
}

func findTestdataDir() string {
	candidates := []string{"testdata", filepath.Join("..", "..", "testdata"), "."}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "."
}

func writeJSONFile(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
		os.Exit(1)
	}
}
