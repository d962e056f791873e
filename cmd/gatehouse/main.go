package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/classtrack/gatehouse/internal/admission/app"
	"github.com/classtrack/gatehouse/internal/admission/domain"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	// Standalone runs get an empty identity store; the classtrack deployment
	// injects its user-storage adapter here instead.
	application, err := app.New(cfg, domain.NewStaticIdentityStore())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
