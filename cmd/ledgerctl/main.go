// Command ledgerctl administers a munch ledger database: it seeds the chart
// of accounts, creates the schema on sqlite, and runs the consistency checks
// and their repairs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/verification"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		logLevel   string
		output     string
		timeout    time.Duration
	)

	flag.StringVar(&configPath, "config", "", "Path to a TOML config file (default: ./config.toml if present)")
	flag.StringVar(&logLevel, "log-level", "", "Log level, overrides log.level from config")
	flag.StringVar(&output, "output", "text", "Output format for verify and repair (text, json)")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		// stdout is reserved for reports
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}

	code := run(ctx, a, args, output, os.Stdout)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := a.close(shutdownCtx); err != nil {
		log.Warn("Shutdown finished with errors", zap.Error(err))
	}
	if code != 0 {
		_ = log.Sync()
		os.Exit(code)
	}
}

// run executes one subcommand and returns the process exit code: 0 on
// success, 1 on error, 3 when verify or repair leaves checks failing.
func run(ctx context.Context, a *app, args []string, output string, w io.Writer) int {
	log := a.log.With(zap.String("command", args[0]))

	switch args[0] {
	case "automigrate":
		if err := persistence.AutoMigrate(a.db.DB); err != nil {
			log.Error("Automigrate failed", zap.Error(err))
			return 1
		}
		log.Info("Schema is up to date", zap.String("driver", a.db.Driver))
		return 0

	case "seed-accounts":
		res, err := a.ledger.SeedChartOfAccounts(ctx)
		if err != nil {
			log.Error("Seeding the chart of accounts failed", zap.Error(err))
			return 1
		}
		log.Info("Chart of accounts seeded",
			zap.Strings("created", res.Created),
			zap.Int("existing", res.Existing),
		)
		return 0

	case "verify":
		report, err := a.verification.RunAllChecks(ctx)
		if err != nil {
			log.Error("Verification failed", zap.Error(err))
			return 1
		}
		if err := printReport(w, output, report); err != nil {
			log.Error("Failed to print report", zap.Error(err))
			return 1
		}
		if report.Ok() {
			return 0
		}
		if len(a.cfg.Verification.RepairOnVerify) == 0 {
			return 3
		}
		return repairAndReverify(ctx, a, a.cfg.Verification.RepairOnVerify, output, w)

	case "repair":
		if len(args) < 2 {
			log.Error("Check name required. Usage: ledgerctl repair <check>|all")
			return 1
		}
		actions, err := a.verification.Repair(ctx, args[1])
		if err != nil {
			log.Error("Repair failed", zap.Error(err))
			return 1
		}
		if err := printActions(w, output, actions); err != nil {
			log.Error("Failed to print actions", zap.Error(err))
			return 1
		}
		for _, act := range actions {
			if act.Outcome == verification.OutcomeFailed {
				return 3
			}
		}
		return 0

	default:
		log.Error("Unknown command")
		printUsage()
		return 2
	}
}

// repairAndReverify runs the configured repairs after a failed verify and
// prints the second report
func repairAndReverify(ctx context.Context, a *app, checks []string, output string, w io.Writer) int {
	var actions []verification.RepairAction
	for _, name := range checks {
		got, err := a.verification.Repair(ctx, name)
		if err != nil {
			a.log.Error("Repair failed", zap.String("check", name), zap.Error(err))
			return 1
		}
		actions = append(actions, got...)
	}
	if err := printActions(w, output, actions); err != nil {
		a.log.Error("Failed to print actions", zap.Error(err))
		return 1
	}

	report, err := a.verification.RunAllChecks(ctx)
	if err != nil {
		a.log.Error("Verification failed", zap.Error(err))
		return 1
	}
	if err := printReport(w, output, report); err != nil {
		a.log.Error("Failed to print report", zap.Error(err))
		return 1
	}
	if !report.Ok() {
		return 3
	}
	return 0
}

func printReport(w io.Writer, output string, report *verification.Report) error {
	if output == "json" {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Verification at %s: %d ok, %d with issues\n",
		report.CheckedAt.Format(time.RFC3339), report.OkCount, report.ErrorCount)
	for _, res := range report.Results {
		fmt.Fprintf(w, "  [%s] %s\n", res.Status, res.Name)
		for _, issue := range res.Issues {
			fmt.Fprintf(w, "      - %s\n", issue)
		}
	}
	return nil
}

func printActions(w io.Writer, output string, actions []verification.RepairAction) error {
	if output == "json" {
		if actions == nil {
			actions = []verification.RepairAction{}
		}
		return writeJSON(w, actions)
	}
	if len(actions) == 0 {
		fmt.Fprintln(w, "Nothing to repair")
		return nil
	}
	for _, act := range actions {
		fmt.Fprintf(w, "  %-8s %s/%s: %s", act.Outcome, act.Check, act.Action, act.Details)
		if act.Err != "" {
			fmt.Fprintf(w, " (%s)", act.Err)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Printf(`Munch ledger administration

Usage:
  ledgerctl [flags] <command> [arguments]

Commands:
  automigrate           Create or update the schema from the models (sqlite and tests)
  seed-accounts         Create the standard chart of accounts, skipping existing codes
  verify                Run every consistency check and print the report
  repair <check>|all    Repair one check, or every failing check

Checks:
`)
	for _, name := range verification.CheckNames() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Print(`
Flags:
  -config string        TOML config file (default: ./config.toml if present)
  -log-level string     Log level (default: log.level from config)
  -output string        text or json (default: text)
  -timeout duration     Overall deadline (default: 5m)

Exit codes:
  0 success, 1 error, 2 usage, 3 checks still failing
`)
}
