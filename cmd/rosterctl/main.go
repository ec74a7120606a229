package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/classpoints-backend/internal/clock"
	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/logger"
	"github.com/stemsi/classpoints-backend/internal/repository"
	"github.com/stemsi/classpoints-backend/internal/service"
	"github.com/stemsi/classpoints-backend/internal/worker"
)

func main() {
	var yes bool
	var out string
	flag.BoolVar(&yes, "yes", false, "Skip confirmation prompts")
	flag.StringVar(&out, "o", "", "Output file for export (defaults to the dated export name)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(os.Stderr, cfg.LogLevel, "pretty")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	stores, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open snapshot store")
	}
	defer stores.Close()

	clk := clock.New()
	snapshots := worker.NewSnapshotWorker(stores.Snapshot, log)
	classroom := service.NewClassroomService(service.ClassroomDeps{
		Store:     stores.Snapshot,
		Persister: snapshots,
		Ledger:    stores.Ledger,
		Clock:     clk,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, log)
	if err := classroom.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load roster")
	}
	transfer := service.NewTransferService(classroom, clk, log)

	// ─── Commands ──────────────────────────────────────────────────────
	switch args[0] {
	case "list":
		for _, c := range classroom.ListClasses() {
			fmt.Printf("%-28s %-24s %3d students\n", c.ID, c.Name, c.StudentCount)
		}

	case "export":
		name, body, err := transfer.Export(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
		if out == "" {
			out = name
		}
		if out == "-" {
			_, _ = os.Stdout.Write(body)
			return
		}
		if err := os.WriteFile(out, body, 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write export")
		}
		fmt.Printf("Exported %d classes to %s\n", len(classroom.ListClasses()), out)

	case "import":
		if len(args) < 2 {
			log.Fatal().Msg("import requires a file argument")
		}
		body, err := os.ReadFile(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read import file")
		}
		if !yes && !confirm(fmt.Sprintf("Replace all %d stored classes with %s?", len(classroom.ListClasses()), args[1])) {
			fmt.Println("Aborted.")
			return
		}
		n, err := transfer.Import(ctx, body)
		if err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		flush(ctx, snapshots, log)
		fmt.Printf("Imported %d classes.\n", n)

	case "delete-class":
		if len(args) < 2 {
			log.Fatal().Msg("delete-class requires a class id")
		}
		id := args[1]
		if _, err := classroom.GetClass(id, ""); err != nil {
			log.Fatal().Err(err).Str("class_id", id).Msg("Class not found")
		}
		ok := yes || confirm(fmt.Sprintf("Delete class %q and all its points?", id))
		if err := classroom.DeleteClass(id, ok); err != nil {
			if !ok {
				fmt.Println("Aborted.")
				return
			}
			log.Fatal().Err(err).Msg("Delete failed")
		}
		flush(ctx, snapshots, log)
		fmt.Printf("Deleted class %s.\n", id)

	default:
		printUsage()
		os.Exit(2)
	}
}

// confirm asks a yes/no question on an interactive terminal. Without a
// terminal the answer is no; pass -yes in scripts.
func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Not a terminal, use -yes to confirm")
		return false
	}
	fmt.Printf("%s [y/N]: ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func flush(ctx context.Context, snapshots *worker.SnapshotWorker, log zerolog.Logger) {
	if err := snapshots.Flush(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to save roster")
	}
}

func printUsage() {
	fmt.Println("Usage: rosterctl [flags] <command>")
	fmt.Println("Commands:")
	fmt.Println("  list                    List stored classes")
	fmt.Println("  export                  Write the roster as an export file (-o - for stdout)")
	fmt.Println("  import <file>           Replace the roster with an export file")
	fmt.Println("  delete-class <id>       Delete one class")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
