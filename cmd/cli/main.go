package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/arifhasan/khata/internal/config"
	"github.com/arifhasan/khata/internal/domain"
	"github.com/arifhasan/khata/internal/extract"
	"github.com/arifhasan/khata/internal/logger"
	"github.com/arifhasan/khata/internal/money"
	"github.com/arifhasan/khata/internal/store"
	"github.com/arifhasan/khata/internal/summary"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log)
	case "list":
		runList(log)
	case "summary":
		runSummary(log)
	case "delete":
		runDelete(log)
	case "chat":
		runChat(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Khata CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add       Record a transaction")
	fmt.Println("  list      List transactions")
	fmt.Println("  summary   Show totals and breakdowns")
	fmt.Println("  delete    Delete a transaction by id")
	fmt.Println("  chat      Record a transaction from free text (needs an API key)")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newStore(dataDir string, log zerolog.Logger) *store.FileStore {
	return store.NewFileStore(dataDir, log)
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory")
	user := fs.String("user", store.DefaultIdentity, "identity to record under")
	kindStr := fs.String("type", "expense", "income or expense")
	amountStr := fs.String("amount", "", "amount, e.g. 450 or 12.50")
	category := fs.String("category", "", "category label")
	dateStr := fs.String("date", "", "date (YYYY-MM-DD), defaults to today")
	note := fs.String("note", "", "optional note")
	fs.Parse(os.Args[2:])

	kind, err := domain.ParseKind(*kindStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --type")
	}
	amount, err := money.ParseDecimal(*amountStr)
	if err != nil {
		log.Fatal().Str("amount", *amountStr).Msg("Invalid --amount")
	}
	date := domain.Today()
	if *dateStr != "" {
		date, err = domain.ParseDate(*dateStr)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --date")
		}
	}

	tx := domain.Transaction{
		ID:         uuid.New().String(),
		Kind:       kind,
		Amount:     amount,
		Category:   *category,
		OccurredOn: date,
		Note:       *note,
		RecordedAt: time.Now(),
	}
	if err := tx.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid transaction")
	}

	if err := newStore(*dataDir, log).Add(tx, *user); err != nil {
		log.Fatal().Err(err).Msg("Failed to save transaction")
	}
	fmt.Printf("Recorded %s %s (%s) as %s\n", tx.Kind, tx.Amount, tx.Category, tx.ID)
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory")
	user := fs.String("user", store.DefaultIdentity, "identity to list")
	fs.Parse(os.Args[2:])

	txs, err := newStore(*dataDir, log).Load(*user)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return
	}
	for _, tx := range txs {
		line := fmt.Sprintf("%s  %-7s %10s  %-15s", tx.OccurredOn, tx.Kind, tx.Amount, tx.Category)
		if tx.Note != "" {
			line += "  " + tx.Note
		}
		fmt.Println(line + "  [" + tx.ID + "]")
	}
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory")
	user := fs.String("user", store.DefaultIdentity, "identity to summarize")
	asJSON := fs.Bool("json", false, "print the full summary as JSON")
	fs.Parse(os.Args[2:])

	txs, err := newStore(*dataDir, log).Load(*user)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	s := summary.Compute(txs)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode summary")
		}
		return
	}

	fmt.Printf("Income:  %s\n", s.TotalIncome)
	fmt.Printf("Expense: %s\n", s.TotalExpense)
	fmt.Printf("Balance: %s\n", s.Balance)
	if len(s.CategoryExpense) > 0 {
		fmt.Println("\nExpense by category:")
		for cat, amount := range s.CategoryExpense {
			fmt.Printf("  %-15s %s\n", cat, amount)
		}
	}
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory")
	user := fs.String("user", store.DefaultIdentity, "identity to delete from")
	id := fs.String("id", "", "transaction id")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	if err := newStore(*dataDir, log).Delete(*id, *user); err != nil {
		log.Fatal().Err(err).Msg("Failed to delete transaction")
	}
	fmt.Println("Deleted (if it existed).")
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	dataDir := fs.String("data-dir", "data", "data directory")
	user := fs.String("user", store.DefaultIdentity, "identity to record under")
	text := fs.String("text", "", "free-text description, English/Bangla/mixed")
	fs.Parse(os.Args[2:])

	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}

	cfg := config.Load()
	cfg.DataDir = *dataDir
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	extractor := extract.New(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExtractionTimeout+5*time.Second)
	defer cancel()

	result, err := extractor.Extract(ctx, *text, domain.Today())
	if err != nil {
		log.Fatal().Err(err).Msg("Could not extract transaction data")
	}

	note := result.Note
	if note == "" {
		note = *text
	}

	tx := domain.Transaction{
		ID:         uuid.New().String(),
		Kind:       result.Kind,
		Amount:     result.Amount,
		Category:   result.Category,
		OccurredOn: result.Date,
		Note:       note,
		RecordedAt: time.Now(),
	}

	if err := newStore(*dataDir, log).Add(tx, *user); err != nil {
		log.Fatal().Err(err).Msg("Failed to save transaction")
	}
	fmt.Printf("Recorded %s %s (%s) on %s\n", tx.Kind, tx.Amount, tx.Category, tx.OccurredOn)
}
