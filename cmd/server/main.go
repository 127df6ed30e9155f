package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sikafe/rentpay/internal/api"
	"github.com/sikafe/rentpay/internal/config"
	"github.com/sikafe/rentpay/internal/domain"
	"github.com/sikafe/rentpay/internal/fallback"
	"github.com/sikafe/rentpay/internal/notify"
	"github.com/sikafe/rentpay/internal/payment"
	"github.com/sikafe/rentpay/internal/provider"
	"github.com/sikafe/rentpay/internal/repository"
	"github.com/sikafe/rentpay/internal/transfer"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	paymentRepo := repository.NewPaymentRepo(db)
	transferRepo := repository.NewTransferRepo(db)
	leaseRepo := repository.NewLeaseRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// SMS gateways in fixed priority order: cheapest and most reliable on
	// local routes first, widest routing last.
	smsExecutor := fallback.NewExecutor("sms", cfg.ProviderTimeout,
		provider.NewLeTexto(cfg.LeTextoBaseURL, cfg.LeTextoToken, cfg.SMSSenderID, cfg.LeTextoRetries),
		provider.NewTermii(cfg.TermiiBaseURL, cfg.TermiiAPIKey, cfg.SMSSenderID, cfg.TermiiRetries),
		provider.NewInfobip(cfg.InfobipBaseURL, cfg.InfobipAPIKey, cfg.SMSSenderID, cfg.InfobipRetries),
	)

	// Create services.
	calculator := transfer.NewCalculator(transferRepo, leaseRepo, cfg.PlatformFeeBps, cfg.ProviderFeeBps)
	dispatcher := notify.NewDispatcher(smsExecutor)
	machine := payment.NewMachine(paymentRepo, calculator, dispatcher)

	// Seed ledger if DB is empty.
	count, err := paymentRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count payments: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding ledger from testdata...")
		if err := seedLedger(paymentRepo, leaseRepo); err != nil {
			log.Printf("WARNING: Failed to seed ledger: %v", err)
		}
	} else {
		log.Printf("Database already has %d payments, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(paymentRepo, transferRepo, auditRepo, machine)

	log.Printf("Sikafe Rent Payment Reconciler")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/webhooks/payment")
	log.Printf("  GET    /api/v1/payments")
	log.Printf("  GET    /api/v1/payments/{reference}")
	log.Printf("  GET    /api/v1/transfers")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedFile mirrors testdata/ledger.json.
type seedFile struct {
	Properties []domain.Property `json:"properties"`
	Leases     []domain.Lease    `json:"leases"`
	Payments   []domain.Payment  `json:"payments"`
}

func seedLedger(paymentRepo *repository.PaymentRepo, leaseRepo *repository.LeaseRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/ledger.json",
		filepath.Join(".", "testdata", "ledger.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "ledger.json"),
			filepath.Join(dir, "..", "..", "testdata", "ledger.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded ledger seed from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find ledger.json in any candidate path: %w", loadErr)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unmarshal ledger seed: %w", err)
	}

	for i := range seed.Properties {
		if err := leaseRepo.InsertProperty(&seed.Properties[i]); err != nil {
			return fmt.Errorf("seed property %d: %w", i, err)
		}
	}
	for i := range seed.Leases {
		if err := leaseRepo.InsertLease(&seed.Leases[i]); err != nil {
			return fmt.Errorf("seed lease %d: %w", i, err)
		}
	}

	inserted, err := paymentRepo.BulkInsert(seed.Payments)
	if err != nil {
		return fmt.Errorf("bulk insert payments: %w", err)
	}

	log.Printf("Seeded %d properties, %d leases, %d payments",
		len(seed.Properties), len(seed.Leases), inserted)
	return nil
}
