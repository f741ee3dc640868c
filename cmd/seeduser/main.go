// Command seeduser registers a demo company with its admin user.
// Usage: go run ./cmd/seeduser
package main

import (
	"context"
	"errors"
	"os"

	"atlascrm/internal/config"
	"atlascrm/internal/dto"
	"atlascrm/internal/infra"
	"atlascrm/internal/pricing"
	"atlascrm/internal/repository"
	"atlascrm/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	repos := repository.New(db)
	companies := service.NewCompanyService(repos.Companies, repos.Users, nil)

	req := dto.RegisterCompanyRequest{
		Name:          getenv("SEED_COMPANY", "Atlas Démo"),
		Email:         getenv("SEED_COMPANY_EMAIL", "contact@atlas-demo.local"),
		Country:       "Gabon",
		City:          "Libreville",
		Currency:      "XAF",
		Taxes:         []pricing.TaxDefinition{{Name: "TVA", Value: "18"}, {Name: "CSS", Value: "1"}},
		AdminName:     "Admin Démo",
		AdminEmail:    getenv("SEED_ADMIN_EMAIL", "admin@atlas-demo.local"),
		AdminPassword: getenv("SEED_ADMIN_PASSWORD", "atlas-demo-2024"),
	}

	resp, err := companies.Register(context.Background(), req)
	if errors.Is(err, service.ErrDuplicate) {
		log.Info().Str("company", req.Name).Msg("demo company already exists, nothing to do")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().
		Str("company_id", resp.Company.ID).
		Str("admin", resp.Admin.Email).
		Msg("demo company created")
}
