package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAccountRepo struct {
	accounts map[uuid.UUID]*Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (m *mockAccountRepo) Create(ctx context.Context, acc *Account) error {
	cp := *acc
	m.accounts[acc.ID] = &cp
	return nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *mockAccountRepo) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	var out []*Account
	for _, acc := range m.accounts {
		out = append(out, acc)
	}
	return out, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, acc *Account) error {
	if _, ok := m.accounts[acc.ID]; !ok {
		return ErrAccountNotFound
	}
	cp := *acc
	m.accounts[acc.ID] = &cp
	return nil
}

func (m *mockAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func TestService_Create(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &Account{Name: " Brokerage ", Currency: "usd"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Brokerage", created.Name)
	assert.Equal(t, "USD", created.Currency)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMockAccountRepo())

	_, err := svc.Create(context.Background(), &Account{Currency: "USD"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(context.Background(), &Account{Name: "No Currency"})
	assert.ErrorIs(t, err, ErrCurrencyRequired)

	_, err = svc.Create(context.Background(), &Account{Name: "Long", Currency: "TOOLONGCURRENCY"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestService_Update_Partial(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &Account{Name: "Savings", Currency: "USD"})
	require.NoError(t, err)

	newName := "Emergency Fund"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Emergency Fund", updated.Name)
	assert.Equal(t, "USD", updated.Currency, "untouched fields survive")
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(newMockAccountRepo())

	name := "Ghost"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestService_Delete(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &Account{Name: "Old", Currency: "EUR"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestService_GetCurrency(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), &Account{Name: "Euro Brokerage", Currency: "eur"})
	require.NoError(t, err)

	currency, err := svc.GetCurrency(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", currency)
}
