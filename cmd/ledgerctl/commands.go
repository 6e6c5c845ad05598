package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"paper-trader-go/internal/currency"
	"paper-trader-go/internal/database"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&usersCmd{},
	&setBalanceCmd{},
	&snapshotCmd{},
	&deleteUserCmd{},
}

var stdout io.Writer = os.Stdout

func appFrom(args []interface{}) *app {
	return args[0].(*app)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

func lookupUser(ctx context.Context, a *app, username string) (*models.User, error) {
	if username == "" {
		return nil, errors.New("-username is required")
	}
	user, err := a.store.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("unknown user %q", username)
	}
	return user, err
}

type migrateCmd struct{}

func (*migrateCmd) Name() string             { return "migrate" }
func (*migrateCmd) Synopsis() string         { return "create or update the database schema" }
func (*migrateCmd) Usage() string            { return "ledgerctl migrate\n" }
func (*migrateCmd) SetFlags(f *flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if err := database.AutoMigrate(appFrom(args).db); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "schema is up to date")
	return subcommands.ExitSuccess
}

type usersCmd struct{}

func (*usersCmd) Name() string             { return "users" }
func (*usersCmd) Synopsis() string         { return "list registered users and their cash balance" }
func (*usersCmd) Usage() string            { return "ledgerctl users\n" }
func (*usersCmd) SetFlags(f *flag.FlagSet) {}

func (*usersCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tBALANCE")
	for _, u := range users {
		balance := "-"
		if account, err := a.store.GetAccount(ctx, u.ID); err == nil {
			balance = currency.USD(account.Balance)
		}
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\n", u.ID, u.Username, u.FirstName, u.LastName, balance)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type setBalanceCmd struct {
	username string
	amount   string
	reset    bool
}

func (*setBalanceCmd) Name() string     { return "set-balance" }
func (*setBalanceCmd) Synopsis() string { return "set a user's cash balance" }
func (*setBalanceCmd) Usage() string {
	return `ledgerctl set-balance -username <name> -amount <decimal> [-reset]

  Sets the cash balance. With -reset all holdings and history of the user
  are removed first and the amount becomes the new profit baseline.
`
}

func (c *setBalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "user to update")
	f.StringVar(&c.amount, "amount", "", "new balance, e.g. 1000.00")
	f.BoolVar(&c.reset, "reset", false, "also clear holdings and history")
}

func (c *setBalanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	user, err := lookupUser(ctx, a, c.username)
	if err != nil {
		return fail(err)
	}
	balance, err := ledger.ParseBalance(c.amount)
	if err != nil {
		return fail(err)
	}

	if err := a.ledger.AdminSetBalance(ctx, user.ID, balance, c.reset); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "%s now has %s\n", user.Username, currency.USD(balance))
	return subcommands.ExitSuccess
}

type snapshotCmd struct {
	username string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "value a user's portfolio at current prices" }
func (*snapshotCmd) Usage() string {
	return "ledgerctl snapshot -username <name>\n"
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "user to value")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	user, err := lookupUser(ctx, a, c.username)
	if err != nil {
		return fail(err)
	}
	snap, err := a.ledger.ComputePortfolioSnapshot(ctx, user.ID)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tAMOUNT\tUNIT COST\tPRICE\tVALUE\tP/L\t")
	for _, h := range snap.Holdings {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t\n", h.Symbol, h.Amount,
			currency.USD(h.UnitValue), currency.USD(h.CurrentPrice),
			currency.USD(h.CurrentValue), currency.USD(h.UnrealizedPL))
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}

	fmt.Fprintf(stdout, "\nCash:       %s\n", currency.USD(snap.Balance))
	fmt.Fprintf(stdout, "Net value:  %s\n", currency.USD(snap.NetValue))
	fmt.Fprintf(stdout, "Baseline:   %s\n", currency.USD(snap.OriginalBalance))
	fmt.Fprintf(stdout, "Net profit: %s (%s)\n", currency.USD(snap.NetProfit), currency.Percent(snap.NetProfitPercent))
	return subcommands.ExitSuccess
}

type deleteUserCmd struct {
	username string
	yes      bool
}

func (*deleteUserCmd) Name() string     { return "delete-user" }
func (*deleteUserCmd) Synopsis() string { return "delete a user and all of their data" }
func (*deleteUserCmd) Usage() string {
	return "ledgerctl delete-user -username <name> -yes\n"
}

func (c *deleteUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "user to delete")
	f.BoolVar(&c.yes, "yes", false, "confirm the deletion")
}

func (c *deleteUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "refusing to delete without -yes")
		return subcommands.ExitUsageError
	}
	a := appFrom(args)
	user, err := lookupUser(ctx, a, c.username)
	if err != nil {
		return fail(err)
	}
	if err := a.ledger.DeleteAccount(ctx, user.ID); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "deleted %s\n", user.Username)
	return subcommands.ExitSuccess
}
