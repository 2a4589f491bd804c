// seed appends synthetic sales to the intake log for local testing.
// With -out it writes an NDJSON batch file instead, e.g. into INTAKE_DROP_DIR.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db"
	"sales-pipeline/internal/db/migrate"
	intakerepo "sales-pipeline/internal/intake/repository"
	"sales-pipeline/internal/seed"
)

func main() {
	n := flag.Int("n", 100, "Number of sales to generate")
	invalidRatio := flag.Float64("invalid-ratio", 0.1, "Share of sales broken on purpose, 0 to 1")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	out := flag.String("out", "", "Write an NDJSON batch file instead of appending to the intake log")
	flag.Parse()

	gen := seed.NewGenerator(*seedValue, *invalidRatio, time.Now())

	if *out != "" {
		if err := writeFile(*out, gen, *n); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seed: wrote %d sales to %s", *n, *out)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.HoldingDatabaseURL == "" {
		log.Fatal("HOLDING_DATABASE_URL is not set; create a .env from .env.example or set HOLDING_DATABASE_URL")
	}
	if err := migrate.EnsureSchema(cfg.HoldingDatabaseURL, migrate.StoreHolding); err != nil {
		log.Fatalf("seed: %v", err)
	}
	conn, err := db.Open(cfg.HoldingDatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := intakerepo.NewPostgresRepository(conn)
	ctx := context.Background()
	defects := map[seed.Defect]int{}
	for i := 0; i < *n; i++ {
		payload, defect, err := gen.Payload()
		if err != nil {
			log.Fatalf("seed: encode sale %d: %v", i, err)
		}
		if _, err := repo.Append(ctx, payload); err != nil {
			log.Fatalf("seed: append sale %d: %v", i, err)
		}
		if defect != seed.DefectNone {
			defects[defect]++
		}
	}
	log.Printf("seed: appended %d sales (invalid by defect: %v)", *n, defects)
}

func writeFile(path string, gen *seed.Generator, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		payload, _, err := gen.Payload()
		if err != nil {
			f.Close()
			return err
		}
		w.Write(payload)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
