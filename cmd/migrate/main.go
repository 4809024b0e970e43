// Command migrate applies the embedded Postgres schema migrations.
//
//	migrate [up|down]
package main

import (
	"log"
	"os"

	"github.com/mini-invest/investment-service/internal/config"
	"github.com/mini-invest/investment-service/internal/db"
)

func main() {
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := db.Migrate(cfg.Postgres.URL, direction); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Printf("migrations applied: %s", direction)
}
