// migrate runs store migrations from embedded SQL; use with go run ./cmd/migrate -store all.
package main

import (
	"flag"
	"fmt"
	"os"

	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db/migrate"
)

func main() {
	storeFlag := flag.String("store", "all", "Store to migrate: holding, main, dlq or all")
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	stores := migrate.Stores
	if *storeFlag != "all" {
		s, err := migrate.ParseStore(*storeFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(2)
		}
		stores = []migrate.Store{s}
	}

	dsns := map[migrate.Store]string{
		migrate.StoreHolding: cfg.HoldingDatabaseURL,
		migrate.StoreMain:    cfg.MainDatabaseURL,
		migrate.StoreDLQ:     cfg.DLQDatabaseURL,
	}
	failed := false
	for _, s := range stores {
		if err := migrate.Run(dsns[s], s, *direction); err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s: %v\n", s, err)
			failed = true
			continue
		}
		fmt.Printf("migrate %s: %s ok\n", s, *direction)
	}
	if failed {
		os.Exit(1)
	}
}
