package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/infra/postgres"
	"github.com/foliotrack/foliotrack/internal/ledger"
	"github.com/foliotrack/foliotrack/internal/module/valuation"
	"github.com/foliotrack/foliotrack/internal/platform/account"
	"github.com/foliotrack/foliotrack/internal/platform/asset"
	"github.com/foliotrack/foliotrack/internal/platform/portfolio"
	"github.com/foliotrack/foliotrack/pkg/logger"
	"github.com/foliotrack/foliotrack/testutil/testdb"
)

var db *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	db, err = testdb.NewTestDB(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = db.Close(ctx)
	os.Exit(code)
}

type testEnv struct {
	accountSvc   *account.Service
	assetSvc     *asset.Service
	ledgerSvc    *ledger.Service
	portfolioSvc *portfolio.Service
	valuationSvc *valuation.Service
	ledgerRepo   *postgres.LedgerRepository
}

func setupEnv(t *testing.T) (context.Context, *testEnv) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, db.Reset(ctx), "failed to reset test database")

	log := logger.New("test", io.Discard)

	accountRepo := postgres.NewAccountRepository(db.Pool)
	assetRepo := postgres.NewAssetRepository(db.Pool)
	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	portfolioRepo := postgres.NewPortfolioRepository(db.Pool)

	accountSvc := account.NewService(accountRepo)
	assetSvc := asset.NewService(assetRepo, nil, log)
	ledgerSvc := ledger.NewService(ledgerRepo, accountSvc, assetSvc, log)
	portfolioSvc := portfolio.NewService(portfolioRepo)
	valuationSvc := valuation.NewService(accountRepo, assetRepo, ledgerRepo, portfolioRepo)

	return ctx, &testEnv{
		accountSvc:   accountSvc,
		assetSvc:     assetSvc,
		ledgerSvc:    ledgerSvc,
		portfolioSvc: portfolioSvc,
		valuationSvc: valuationSvc,
		ledgerRepo:   ledgerRepo,
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

// seedWorld creates a USD account with its cash asset and a BTC asset
func seedWorld(t *testing.T, ctx context.Context, env *testEnv) (*account.Account, *asset.Asset, *asset.Asset) {
	t.Helper()

	acc, err := env.accountSvc.Create(ctx, &account.Account{Name: "Brokerage", Currency: "USD"})
	require.NoError(t, err)

	usd, err := env.assetSvc.Create(ctx, &asset.Asset{
		Ticker: "USD", Name: "US Dollar", Type: asset.AssetTypeFiat,
		CurrentPrice: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	btc, err := env.assetSvc.Create(ctx, &asset.Asset{
		Ticker: "BTC", Name: "Bitcoin", Type: asset.AssetTypeCrypto,
		CurrentPrice: mustDecimal(t, "40000"),
	})
	require.NoError(t, err)

	return acc, usd, btc
}

func TestDepositBuySell_PositionsAndCashTrackTheLedger(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, usd, btc := seedWorld(t, ctx, env)

	// Deposit 10,000 USD
	_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		Type:         ledger.TransactionTypeDeposit,
		Quantity:     mustDecimal(t, "10000"),
		PricePerUnit: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	cash, err := env.ledgerRepo.GetPosition(ctx, acc.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(mustDecimal(t, "10000")), "cash after deposit: %s", cash.TotalQuantity)
	assert.True(t, cash.AverageCost.Equal(decimal.NewFromInt(1)))

	// Buy 0.1 BTC at 40,000 with a 10 fee
	_, err = env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeBuy,
		Quantity:     mustDecimal(t, "0.1"),
		PricePerUnit: mustDecimal(t, "40000"),
		Fee:          mustDecimal(t, "10"),
	})
	require.NoError(t, err)

	pos, err := env.ledgerRepo.GetPosition(ctx, acc.ID, btc.ID)
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(mustDecimal(t, "0.1")))
	assert.True(t, pos.AverageCost.Equal(mustDecimal(t, "40100")), "fee enters cost basis: %s", pos.AverageCost)

	cash, err = env.ledgerRepo.GetPosition(ctx, acc.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(mustDecimal(t, "5990")), "cash after buy: %s", cash.TotalQuantity)

	// Sell 0.05 BTC at 50,000 with a 5 fee
	_, err = env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeSell,
		Quantity:     mustDecimal(t, "0.05"),
		PricePerUnit: mustDecimal(t, "50000"),
		Fee:          mustDecimal(t, "5"),
	})
	require.NoError(t, err)

	pos, err = env.ledgerRepo.GetPosition(ctx, acc.ID, btc.ID)
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(mustDecimal(t, "0.05")))
	assert.True(t, pos.AverageCost.Equal(mustDecimal(t, "40100")), "selling leaves average cost unchanged")

	cash, err = env.ledgerRepo.GetPosition(ctx, acc.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(mustDecimal(t, "8485")), "cash after sell: %s", cash.TotalQuantity)
}

func TestDeleteTransaction_RecalculatesFromRemainingLedger(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, usd, btc := seedWorld(t, ctx, env)

	_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		Type:         ledger.TransactionTypeDeposit,
		Quantity:     mustDecimal(t, "5000"),
		PricePerUnit: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	buy, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeBuy,
		Quantity:     mustDecimal(t, "0.05"),
		PricePerUnit: mustDecimal(t, "40000"),
	})
	require.NoError(t, err)

	require.NoError(t, env.ledgerSvc.DeleteTransaction(ctx, buy.ID))

	// The BTC position row survives, zeroed out
	pos, err := env.ledgerRepo.GetPosition(ctx, acc.ID, btc.ID)
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.IsZero())
	assert.True(t, pos.AverageCost.IsZero())

	cash, err := env.ledgerRepo.GetPosition(ctx, acc.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(mustDecimal(t, "5000")), "cash restored after delete: %s", cash.TotalQuantity)
}

func TestUpdateTransaction_MoveBetweenAccounts(t *testing.T) {
	ctx, env := setupEnv(t)
	accA, usd, _ := seedWorld(t, ctx, env)

	accB, err := env.accountSvc.Create(ctx, &account.Account{Name: "Savings", Currency: "USD"})
	require.NoError(t, err)

	deposit, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    accA.ID,
		Type:         ledger.TransactionTypeDeposit,
		Quantity:     mustDecimal(t, "500"),
		PricePerUnit: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	_, err = env.ledgerSvc.UpdateTransaction(ctx, deposit.ID, ledger.UpdateTransactionInput{
		AccountID: &accB.ID,
	})
	require.NoError(t, err)

	cashA, err := env.ledgerRepo.GetPosition(ctx, accA.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cashA.TotalQuantity.IsZero(), "source account cash zeroed: %s", cashA.TotalQuantity)

	cashB, err := env.ledgerRepo.GetPosition(ctx, accB.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cashB.TotalQuantity.Equal(mustDecimal(t, "500")))
}

func TestPortfolioSummary_AggregatesMemberAccounts(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, _, btc := seedWorld(t, ctx, env)

	_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		Type:         ledger.TransactionTypeDeposit,
		Quantity:     mustDecimal(t, "10000"),
		PricePerUnit: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	_, err = env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeBuy,
		Quantity:     mustDecimal(t, "0.1"),
		PricePerUnit: mustDecimal(t, "40000"),
	})
	require.NoError(t, err)

	// BTC appreciates to 50,000
	newPrice := mustDecimal(t, "50000")
	_, err = env.assetSvc.Update(ctx, btc.ID, asset.UpdateInput{CurrentPrice: &newPrice})
	require.NoError(t, err)

	p, err := env.portfolioSvc.Create(ctx, &portfolio.Portfolio{
		Name:       "Everything",
		AccountIDs: []uuid.UUID{acc.ID},
	})
	require.NoError(t, err)

	summary, err := env.valuationSvc.PortfolioSummary(ctx, p.ID)
	require.NoError(t, err)

	// 6,000 cash plus 0.1 BTC at 50,000
	assert.True(t, summary.TotalValue.Equal(mustDecimal(t, "11000")), "total value: %s", summary.TotalValue)
	assert.True(t, summary.TotalProfit.Equal(mustDecimal(t, "1000")), "total profit: %s", summary.TotalProfit)

	require.Len(t, summary.Holdings, 1, "cash is not a holding")
	h := summary.Holdings[0]
	assert.Equal(t, "BTC", h.Ticker)
	assert.True(t, h.Quantity.Equal(mustDecimal(t, "0.1")))
	assert.True(t, h.AverageCost.Equal(mustDecimal(t, "40000")))
	assert.True(t, h.MarketValue.Equal(mustDecimal(t, "5000")))

	require.Len(t, summary.Accounts, 1)
	assert.True(t, summary.Accounts[0].Balance.Equal(mustDecimal(t, "11000")))
}

func TestAssetDelete_RestrictedWhileReferenced(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, _, btc := seedWorld(t, ctx, env)

	_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeBuy,
		Quantity:     mustDecimal(t, "1"),
		PricePerUnit: mustDecimal(t, "40000"),
	})
	require.NoError(t, err)

	err = env.assetSvc.Delete(ctx, btc.ID)
	assert.ErrorIs(t, err, asset.ErrAssetInUse)
}

func TestAssetDelete_ZeroedPositionDoesNotBlock(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, _, btc := seedWorld(t, ctx, env)

	buy, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:    acc.ID,
		AssetID:      &btc.ID,
		Type:         ledger.TransactionTypeBuy,
		Quantity:     mustDecimal(t, "1"),
		PricePerUnit: mustDecimal(t, "40000"),
	})
	require.NoError(t, err)

	// Deleting the only transaction leaves a zeroed position row behind
	require.NoError(t, env.ledgerSvc.DeleteTransaction(ctx, buy.ID))

	pos, err := env.ledgerRepo.GetPosition(ctx, acc.ID, btc.ID)
	require.NoError(t, err)
	require.True(t, pos.TotalQuantity.IsZero())

	// With no ledger history left, the asset can go; the derived row goes with it
	require.NoError(t, env.assetSvc.Delete(ctx, btc.ID))

	_, err = env.ledgerRepo.GetPosition(ctx, acc.ID, btc.ID)
	assert.ErrorIs(t, err, ledger.ErrPositionNotFound)
}

func TestListTransactionsForAccount_EqualTimestampsOrderByID(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, _, btc := seedWorld(t, ctx, env)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
			AccountID:       acc.ID,
			AssetID:         &btc.ID,
			Type:            ledger.TransactionTypeBuy,
			Quantity:        mustDecimal(t, "1"),
			PricePerUnit:    mustDecimal(t, "40000"),
			TransactionTime: at,
		})
		require.NoError(t, err)
	}

	txns, err := env.ledgerRepo.ListTransactionsForAccount(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	// Equal timestamps fall back to ID order so every replay sees the
	// same sequence
	for i := 1; i < len(txns); i++ {
		prev, cur := txns[i-1].ID, txns[i].ID
		assert.True(t, bytes.Compare(prev[:], cur[:]) < 0,
			"transactions out of ID order: %s before %s", prev, cur)
	}
}

func TestConcurrentTransactions_SerializeOnPositionKey(t *testing.T) {
	ctx, env := setupEnv(t)
	acc, usd, _ := seedWorld(t, ctx, env)

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := env.ledgerSvc.CreateTransaction(ctx, &ledger.Transaction{
				AccountID:    acc.ID,
				Type:         ledger.TransactionTypeDeposit,
				Quantity:     mustDecimal(t, "100"),
				PricePerUnit: decimal.NewFromInt(1),
			})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	cash, err := env.ledgerRepo.GetPosition(ctx, acc.ID, usd.ID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(mustDecimal(t, "800")), "concurrent deposits all counted: %s", cash.TotalQuantity)
}
