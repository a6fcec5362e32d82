// Command gofia-bench is a tiny internal timing harness: open a database,
// clip to a state, and print how long each estimator took. It is not
// the CLI surface spec.md §6 describes as an external collaborator; it
// exists only to spot-check a real database's estimator latency during
// development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mihiarc/gofia"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/internal/frame"
)

func main() {
	path := flag.String("db", "", "path to a FIA database (defaults to PYFIA_DATABASE_PATH/PYFIA_DUCKDB_PATH)")
	engine := flag.String("engine", "", "duckdb (default) or sqlite")
	stateCD := flag.Int("state", 0, "STATECD to clip to")
	flag.Parse()

	if *stateCD == 0 {
		log.Fatal("gofia-bench: -state is required")
	}

	db, err := gofia.Open(*path, *engine)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.ClipByState(*stateCD); err != nil {
		log.Fatalf("clip_by_state: %v", err)
	}

	ctx := context.Background()
	base := config.DefaultBase()

	run(ctx, "area", func() (*frame.Frame, error) { return gofia.Area(ctx, db, config.DefaultAreaConfig()) })
	run(ctx, "tpa", func() (*frame.Frame, error) { return gofia.TPA(ctx, db, base) })
	run(ctx, "volume", func() (*frame.Frame, error) { return gofia.Volume(ctx, db, config.DefaultVolumeConfig()) })
}

func rows(fr *frame.Frame) int {
	if fr == nil {
		return 0
	}
	return fr.NRows()
}

func run(_ context.Context, name string, fn func() (*frame.Frame, error)) {
	start := time.Now()
	fr, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("%-10s FAILED after %v: %v\n", name, elapsed, err)
		return
	}
	fmt.Printf("%-10s %v (%d rows)\n", name, elapsed, rows(fr))
}
