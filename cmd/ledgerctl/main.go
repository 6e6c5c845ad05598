// Command ledgerctl is the operator tool for the paper trading database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"paper-trader-go/internal/config"
	"paper-trader-go/internal/database"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/logger"
	"paper-trader-go/internal/quote"
	"paper-trader-go/internal/repository"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app carries the shared dependencies into every subcommand.
type app struct {
	db     *gorm.DB
	store  repository.Store
	ledger *ledger.Ledger
	log    *zap.Logger
}

func main() {
	configDir := flag.String("config", "./configs", "directory holding config.yml")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}
	flag.Parse()

	switch flag.Arg(0) {
	case "", "help", "flags", "commands":
		os.Exit(int(commander.Execute(context.Background())))
	}

	a, cleanup, err := openApp(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}
	status := commander.Execute(context.Background(), a)
	cleanup()
	os.Exit(int(status))
}

func openApp(configDir string) (*app, func(), error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := repository.NewStore(db)
	a := &app{
		db:     db,
		store:  store,
		ledger: ledger.New(store, quote.NewClient(&cfg.Quote, log), log),
		log:    log,
	}
	cleanup := func() {
		_ = database.Close(db)
		_ = log.Sync()
	}
	return a, cleanup, nil
}
