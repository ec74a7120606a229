package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/logger"
	"github.com/stemsi/classpoints-backend/internal/repository"
	"github.com/stemsi/classpoints-backend/internal/roster"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/worker"
)

// seed-classes fills the configured store. With no flags it writes the demo
// roster when nothing is stored yet. -from adds one class from a text file
// (one name per line) or an .xlsx workbook.
func main() {
	var from, name string
	var reset bool
	flag.StringVar(&from, "from", "", "Text or .xlsx file with student names")
	flag.StringVar(&name, "name", "", "Class name for -from (defaults to the file name)")
	flag.BoolVar(&reset, "reset", false, "Replace everything stored with the demo roster")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stores, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open snapshot store")
	}
	defer stores.Close()

	clk := clock.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	snapshots := worker.NewSnapshotWorker(stores.Snapshot, log)
	classroom := service.NewClassroomService(service.ClassroomDeps{
		Store:     stores.Snapshot,
		Persister: snapshots,
		Ledger:    stores.Ledger,
		Clock:     clk,
		Rand:      rng,
	}, log)

	if err := classroom.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load roster")
	}

	if reset {
		classroom.ReplaceAll(roster.Seed(rng))
		fmt.Println("Roster reset to the demo classes.")
	}

	if from != "" {
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(from), filepath.Ext(from))
		}
		f, err := os.Open(from)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open names file")
		}
		defer f.Close()

		var created int
		if strings.EqualFold(filepath.Ext(from), ".xlsx") {
			c, err := service.NewSpreadsheetService(classroom, clk, log).ImportClass(name, f)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to import workbook")
			}
			created = len(c.Students)
		} else {
			raw, err := io.ReadAll(f)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read names file")
			}
			c, err := classroom.CreateClass(name, string(raw))
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create class")
			}
			created = len(c.Students)
		}
		fmt.Printf("Created class %q with %d students.\n", name, created)
	}

	if err := snapshots.Flush(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to save roster")
	}

	for _, c := range classroom.ListClasses() {
		fmt.Printf("  %-24s %3d students\n", c.Name, c.StudentCount)
	}
	fmt.Printf("\nSeed completed! %d classes stored (%s).\n", len(classroom.ListClasses()), cfg.StoreDriver)
}
