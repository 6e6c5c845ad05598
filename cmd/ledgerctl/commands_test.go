package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"testing"

	"paper-trader-go/internal/database/databasetest"
	"paper-trader-go/internal/ledger"
	"paper-trader-go/internal/models"
	"paper-trader-go/internal/quote"
	"paper-trader-go/internal/repository"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedQuotes map[string]string

func (f fixedQuotes) Lookup(_ context.Context, symbol string) (*quote.Quote, error) {
	price, ok := f[symbol]
	if !ok {
		return nil, quote.ErrSymbolNotFound
	}
	return &quote.Quote{Symbol: symbol, Price: decimal.RequireFromString(price)}, nil
}

func setupApp(t *testing.T) (*app, *bytes.Buffer) {
	db := databasetest.NewMemoryDB(t)
	store := repository.NewStore(db)
	a := &app{
		db:     db,
		store:  store,
		ledger: ledger.New(store, fixedQuotes{"ACME": "12.50"}, zap.NewNop()),
		log:    zap.NewNop(),
	}

	out := new(bytes.Buffer)
	stdout = out
	t.Cleanup(func() { stdout = os.Stdout })
	return a, out
}

func addUser(t *testing.T, a *app, username, balance string) uint {
	t.Helper()
	ctx := context.Background()
	u := &models.User{FirstName: "Test", LastName: "User", Username: username, PasswordHash: "h"}
	require.NoError(t, a.store.CreateUser(ctx, u))
	require.NoError(t, a.store.CreateAccount(ctx, &models.Account{UserID: u.ID, Balance: decimal.RequireFromString(balance)}))
	return u.ID
}

func run(t *testing.T, a *app, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs, a)
}

func TestMigrateAndUsers(t *testing.T) {
	a, out := setupApp(t)
	addUser(t, a, "ada", "1234.5")

	assert.Equal(t, subcommands.ExitSuccess, run(t, a, &migrateCmd{}))
	assert.Equal(t, subcommands.ExitSuccess, run(t, a, &usersCmd{}))

	assert.Contains(t, out.String(), "schema is up to date")
	assert.Contains(t, out.String(), "ada")
	assert.Contains(t, out.String(), "$1,234.50")
}

func TestSetBalance(t *testing.T) {
	a, out := setupApp(t)
	id := addUser(t, a, "ada", "10")

	status := run(t, a, &setBalanceCmd{}, "-username", "ada", "-amount", "500", "-reset")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "ada now has $500.00")
	account, err := a.store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))

	events, err := a.store.ListHistory(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.SystemParty(models.PaperBank), events[0].Sender)

	assert.Equal(t, subcommands.ExitFailure, run(t, a, &setBalanceCmd{}, "-username", "ada", "-amount", "lots"))
	assert.Equal(t, subcommands.ExitFailure, run(t, a, &setBalanceCmd{}, "-username", "ghost", "-amount", "1"))
}

func TestSnapshot(t *testing.T) {
	a, out := setupApp(t)
	id := addUser(t, a, "ada", "100")
	_, err := a.ledger.Buy(context.Background(), id, "ACME", 2)
	require.NoError(t, err)

	status := run(t, a, &snapshotCmd{}, "-username", "ada")

	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out.String(), "ACME")
	assert.Contains(t, out.String(), "Net value:  $100.00")
}

func TestDeleteUser(t *testing.T) {
	a, out := setupApp(t)
	addUser(t, a, "ada", "1")

	assert.Equal(t, subcommands.ExitUsageError, run(t, a, &deleteUserCmd{}, "-username", "ada"))
	assert.Equal(t, subcommands.ExitSuccess, run(t, a, &deleteUserCmd{}, "-username", "ada", "-yes"))
	assert.Contains(t, out.String(), "deleted ada")

	_, err := a.store.GetUserByUsername(context.Background(), "ada")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
