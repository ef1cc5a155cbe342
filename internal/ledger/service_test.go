package ledger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/pkg/logger"
)

// mockRepository is an in-memory Repository for service tests
type mockRepository struct {
	txns      map[uuid.UUID]*Transaction
	positions map[string]*Position

	failUpsert bool
	commits    int
	rollbacks  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		txns:      make(map[uuid.UUID]*Transaction),
		positions: make(map[string]*Position),
	}
}

func posKey(accountID, assetID uuid.UUID) string {
	return accountID.String() + ":" + assetID.String()
}

func (m *mockRepository) CreateTransaction(ctx context.Context, txn *Transaction) error {
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *mockRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	txn, ok := m.txns[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (m *mockRepository) GetTransactionDetail(ctx context.Context, id uuid.UUID) (*TransactionDetail, error) {
	txn, ok := m.txns[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &TransactionDetail{Transaction: *txn, AccountName: "test account"}, nil
}

func (m *mockRepository) UpdateTransaction(ctx context.Context, txn *Transaction) error {
	if _, ok := m.txns[txn.ID]; !ok {
		return ErrTransactionNotFound
	}
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *mockRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.txns[id]; !ok {
		return ErrTransactionNotFound
	}
	delete(m.txns, id)
	return nil
}

func (m *mockRepository) ListTransactions(ctx context.Context, filters TransactionFilters) ([]*TransactionDetail, error) {
	var out []*TransactionDetail
	for _, txn := range m.txns {
		if filters.AccountID != nil && txn.AccountID != *filters.AccountID {
			continue
		}
		out = append(out, &TransactionDetail{Transaction: *txn, AccountName: "test account"})
	}
	return out, nil
}

func (m *mockRepository) ListTransactionsForPosition(ctx context.Context, accountID, assetID uuid.UUID) ([]*Transaction, error) {
	var out []*Transaction
	for _, txn := range m.txns {
		if txn.AccountID == accountID && txn.AssetID != nil && *txn.AssetID == assetID {
			out = append(out, txn)
		}
	}
	sortByTime(out)
	return out, nil
}

func (m *mockRepository) ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*Transaction, error) {
	var out []*Transaction
	for _, txn := range m.txns {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(txns []*Transaction) {
	for i := 1; i < len(txns); i++ {
		for j := i; j > 0 && txns[j].TransactionTime.Before(txns[j-1].TransactionTime); j-- {
			txns[j], txns[j-1] = txns[j-1], txns[j]
		}
	}
}

func (m *mockRepository) GetPosition(ctx context.Context, accountID, assetID uuid.UUID) (*Position, error) {
	pos, ok := m.positions[posKey(accountID, assetID)]
	if !ok {
		return nil, ErrPositionNotFound
	}
	cp := *pos
	return &cp, nil
}

func (m *mockRepository) UpsertPosition(ctx context.Context, pos *Position) error {
	if m.failUpsert {
		return errors.New("upsert failed")
	}
	cp := *pos
	m.positions[posKey(pos.AccountID, pos.AssetID)] = &cp
	return nil
}

func (m *mockRepository) ListPositionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*Position, error) {
	var out []*Position
	for _, pos := range m.positions {
		if pos.AccountID == accountID {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (m *mockRepository) LockPositionKey(ctx context.Context, accountID, assetID uuid.UUID) error {
	return nil
}

func (m *mockRepository) BeginTx(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func (m *mockRepository) CommitTx(ctx context.Context) error {
	m.commits++
	return nil
}

func (m *mockRepository) RollbackTx(ctx context.Context) error {
	m.rollbacks++
	return nil
}

// mockAccounts maps account IDs to currencies
type mockAccounts struct {
	currencies map[uuid.UUID]string
}

func (m *mockAccounts) GetCurrency(ctx context.Context, id uuid.UUID) (string, error) {
	c, ok := m.currencies[id]
	if !ok {
		return "", errors.New("account not found")
	}
	return c, nil
}

// mockAssets maps currencies to cash asset IDs
type mockAssets struct {
	cashAssets map[string]uuid.UUID
}

func (m *mockAssets) FindCashAssetID(ctx context.Context, currency string) (uuid.UUID, error) {
	id, ok := m.cashAssets[currency]
	if !ok {
		return uuid.Nil, ErrCashAssetNotFound
	}
	return id, nil
}

func newTestService(repo *mockRepository, accounts *mockAccounts, assets *mockAssets) *Service {
	return NewService(repo, accounts, assets, logger.New("test", io.Discard))
}

func setupCashWorld() (*mockRepository, *mockAccounts, *mockAssets, uuid.UUID, uuid.UUID) {
	repo := newMockRepository()
	accountID := uuid.New()
	cashAssetID := uuid.New()
	accounts := &mockAccounts{currencies: map[uuid.UUID]string{accountID: "USD"}}
	assets := &mockAssets{cashAssets: map[string]uuid.UUID{"USD": cashAssetID}}
	return repo, accounts, assets, accountID, cashAssetID
}

func TestService_CreateTransaction_RecalculatesPositionAndCash(t *testing.T) {
	repo, accounts, assets, accountID, cashAssetID := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	assetID := uuid.New()
	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &assetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("10"),
		PricePerUnit: d("100"),
		Fee:          d("5"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.TransactionTime.IsZero())

	pos, err := repo.GetPosition(context.Background(), accountID, assetID)
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(d("10")))
	assert.True(t, pos.AverageCost.Equal(d("100.5")), "average cost = %s", pos.AverageCost)

	cash, err := repo.GetPosition(context.Background(), accountID, cashAssetID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.Equal(d("-1005")), "cash = %s", cash.TotalQuantity)
	assert.True(t, cash.AverageCost.Equal(d("1")))

	assert.Equal(t, 1, repo.commits)
	assert.Equal(t, 0, repo.rollbacks)
}

func TestService_GetTransactionDetail_IncludesAccountName(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		Type:         TransactionTypeDeposit,
		Quantity:     d("500"),
		PricePerUnit: d("1"),
	})
	require.NoError(t, err)

	detail, err := svc.GetTransactionDetail(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, "test account", detail.AccountName)

	_, err = svc.GetTransactionDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestService_CreateTransaction_ValidationRejected(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	_, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID: accountID,
		Type:      TransactionType("barter"),
	})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)
	assert.Empty(t, repo.txns)

	_, err = svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		Type:         TransactionTypeBuy,
		Quantity:     d("-1"),
		PricePerUnit: d("10"),
	})
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestService_CreateTransaction_RollsBackOnRecalcFailure(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	repo.failUpsert = true
	svc := newTestService(repo, accounts, assets)

	assetID := uuid.New()
	_, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &assetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("1"),
		PricePerUnit: d("10"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, repo.commits)
	assert.Equal(t, 1, repo.rollbacks)
}

func TestService_CreateTransaction_MissingCashAssetIsSkipped(t *testing.T) {
	repo := newMockRepository()
	accountID := uuid.New()
	accounts := &mockAccounts{currencies: map[uuid.UUID]string{accountID: "CHF"}}
	assets := &mockAssets{cashAssets: map[string]uuid.UUID{}}
	svc := newTestService(repo, accounts, assets)

	assetID := uuid.New()
	_, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &assetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("1"),
		PricePerUnit: d("10"),
	})
	require.NoError(t, err)

	// Asset position written, no cash position materialized
	_, err = repo.GetPosition(context.Background(), accountID, assetID)
	assert.NoError(t, err)
	assert.Len(t, repo.positions, 1)
}

func TestService_DeleteTransaction_ZeroesPosition(t *testing.T) {
	repo, accounts, assets, accountID, cashAssetID := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	assetID := uuid.New()
	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &assetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("10"),
		PricePerUnit: d("100"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(context.Background(), created.ID))

	// The position row survives with zero quantity; it existed before.
	pos, err := repo.GetPosition(context.Background(), accountID, assetID)
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.IsZero())
	assert.True(t, pos.AverageCost.IsZero())

	cash, err := repo.GetPosition(context.Background(), accountID, cashAssetID)
	require.NoError(t, err)
	assert.True(t, cash.TotalQuantity.IsZero())
}

func TestService_DeleteTransaction_NotFound(t *testing.T) {
	repo, accounts, assets, _, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	err := svc.DeleteTransaction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestService_UpdateTransaction_RecalculatesBothPairsOnMove(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	oldAssetID := uuid.New()
	newAssetID := uuid.New()

	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &oldAssetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("5"),
		PricePerUnit: d("20"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(context.Background(), created.ID, UpdateTransactionInput{
		AssetID: &newAssetID,
	})
	require.NoError(t, err)

	oldPos, err := repo.GetPosition(context.Background(), accountID, oldAssetID)
	require.NoError(t, err)
	assert.True(t, oldPos.TotalQuantity.IsZero(), "old pair replayed without the transaction")

	newPos, err := repo.GetPosition(context.Background(), accountID, newAssetID)
	require.NoError(t, err)
	assert.True(t, newPos.TotalQuantity.Equal(d("5")))
	assert.True(t, newPos.AverageCost.Equal(d("20")))
}

func TestService_UpdateTransaction_MoveBetweenAccountsFixesBothCashBalances(t *testing.T) {
	repo := newMockRepository()
	accountA := uuid.New()
	accountB := uuid.New()
	cashUSD := uuid.New()
	accounts := &mockAccounts{currencies: map[uuid.UUID]string{accountA: "USD", accountB: "USD"}}
	assets := &mockAssets{cashAssets: map[string]uuid.UUID{"USD": cashUSD}}
	svc := newTestService(repo, accounts, assets)

	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountA,
		Type:         TransactionTypeDeposit,
		Quantity:     d("500"),
		PricePerUnit: d("1"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(context.Background(), created.ID, UpdateTransactionInput{
		AccountID: &accountB,
	})
	require.NoError(t, err)

	cashA, err := repo.GetPosition(context.Background(), accountA, cashUSD)
	require.NoError(t, err)
	assert.True(t, cashA.TotalQuantity.IsZero(), "source account cash = %s", cashA.TotalQuantity)

	cashB, err := repo.GetPosition(context.Background(), accountB, cashUSD)
	require.NoError(t, err)
	assert.True(t, cashB.TotalQuantity.Equal(d("500")))
}

func TestService_RecalculatePosition_Idempotent(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	assetID := uuid.New()
	_, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		AssetID:      &assetID,
		Type:         TransactionTypeBuy,
		Quantity:     d("3"),
		PricePerUnit: d("200"),
		Fee:          d("1"),
	})
	require.NoError(t, err)

	first, err := repo.GetPosition(context.Background(), accountID, assetID)
	require.NoError(t, err)

	require.NoError(t, svc.RecalculatePosition(context.Background(), accountID, assetID))
	require.NoError(t, svc.RecalculatePosition(context.Background(), accountID, assetID))

	again, err := repo.GetPosition(context.Background(), accountID, assetID)
	require.NoError(t, err)
	assert.True(t, first.TotalQuantity.Equal(again.TotalQuantity))
	assert.True(t, first.AverageCost.Equal(again.AverageCost))
}

func TestService_RecalculateCash_NeverMaterializesEmptyRow(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	require.NoError(t, svc.RecalculateCash(context.Background(), accountID))
	assert.Empty(t, repo.positions, "no transactions, no position rows")
}

func TestService_CashAverageCostIsAlwaysOne(t *testing.T) {
	repo, accounts, assets, accountID, cashAssetID := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	for _, amount := range []string{"100", "250.5", "0.01"} {
		_, err := svc.CreateTransaction(context.Background(), &Transaction{
			AccountID:    accountID,
			Type:         TransactionTypeDeposit,
			Quantity:     d(amount),
			PricePerUnit: d("1"),
		})
		require.NoError(t, err)
	}

	cash, err := repo.GetPosition(context.Background(), accountID, cashAssetID)
	require.NoError(t, err)
	assert.True(t, cash.AverageCost.Equal(decimal.NewFromInt(1)))
	assert.True(t, cash.TotalQuantity.Equal(d("350.51")))
}

func TestService_CreateTransaction_DefaultsTimeToNow(t *testing.T) {
	repo, accounts, assets, accountID, _ := setupCashWorld()
	svc := newTestService(repo, accounts, assets)

	before := time.Now().UTC()
	created, err := svc.CreateTransaction(context.Background(), &Transaction{
		AccountID:    accountID,
		Type:         TransactionTypeDeposit,
		Quantity:     d("1"),
		PricePerUnit: d("1"),
	})
	require.NoError(t, err)
	assert.False(t, created.TransactionTime.Before(before))
}
