package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/adapters/persistence"
	"github.com/andrescamacho/gangsim/internal/domain/gang"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
	"github.com/andrescamacho/gangsim/test/helpers"
)

var time0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTransaction(t *testing.T, owner shared.EntityRef, txType ledger.TransactionType, units int64, at time.Time) *ledger.Transaction {
	t.Helper()
	amount := utils.Units(units)
	shares := amount.Mul(decimal.New(1, 8))
	tx, err := ledger.NewTransaction(ledger.TransactionParams{
		Owner:         owner,
		Currency:      "bandits",
		Timestamp:     at,
		Type:          txType,
		Amount:        amount,
		SharesDelta:   shares,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  amount.Abs(),
		Counterparty:  gang.Ref(99),
		Description:   "test",
		Operation:     shared.NewOperationContext("claim-gangs-1-abcdef12", "claim"),
	})
	require.NoError(t, err)
	return tx
}

func TestTransactionRepository_CreateAndFindByID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := persistence.NewGormTransactionRepository(helpers.NewTestDB(t))
	// 18-decimal amounts beyond float precision must survive the round trip
	tx := newTransaction(t, gang.Ref(1), ledger.TransactionTypeProductionClaim, 123456789, time0)

	// Act
	require.NoError(t, repo.Create(ctx, tx))
	found, err := repo.FindByID(ctx, tx.ID())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, tx.ID(), found.ID())
	assert.Equal(t, tx.Owner(), found.Owner())
	assert.Equal(t, ledger.CategoryProduction, found.Category())
	assert.True(t, tx.Amount().Equal(found.Amount()), "amount %s", found.Amount())
	assert.True(t, tx.SharesDelta().Equal(found.SharesDelta()), "shares %s", found.SharesDelta())
	assert.Equal(t, gang.Ref(99), found.Counterparty())
	assert.Equal(t, "claim", found.OperationType())
	assert.Equal(t, "claim-gangs-1-abcdef12", found.OperationID())
}

func TestTransactionRepository_NotFound(t *testing.T) {
	repo := persistence.NewGormTransactionRepository(helpers.NewTestDB(t))

	_, err := repo.FindByID(context.Background(), ledger.NewTransactionID())

	var notFound *ledger.ErrTransactionNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestTransactionRepository_FindByOwnerFiltersAndPages(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := persistence.NewGormTransactionRepository(helpers.NewTestDB(t))
	g1, g2 := gang.Ref(1), gang.Ref(2)
	require.NoError(t, repo.Create(ctx, newTransaction(t, g1, ledger.TransactionTypeDeposit, 100, time0)))
	require.NoError(t, repo.Create(ctx, newTransaction(t, g1, ledger.TransactionTypeProductionClaim, 5, time0.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newTransaction(t, g1, ledger.TransactionTypeAttackCost, -2, time0.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, newTransaction(t, g2, ledger.TransactionTypeDeposit, 50, time0)))

	// Act
	all, errAll := repo.FindByOwner(ctx, g1, ledger.DefaultQueryOptions())
	combat := ledger.CategoryCombat
	combatOnly, errCombat := repo.FindByOwner(ctx, g1, ledger.QueryOptions{Category: &combat})
	start := time0.Add(30 * time.Minute)
	page, errPage := repo.FindByOwner(ctx, g1, ledger.QueryOptions{StartDate: &start, Limit: 1, OrderBy: "timestamp ASC"})
	count, errCount := repo.CountByOwner(ctx, g1, ledger.QueryOptions{})

	// Assert
	require.NoError(t, errAll)
	require.NoError(t, errCombat)
	require.NoError(t, errPage)
	require.NoError(t, errCount)

	require.Len(t, all, 3)
	assert.Equal(t, ledger.TransactionTypeAttackCost, all[0].TransactionType())
	require.Len(t, combatOnly, 1)
	assert.True(t, utils.Units(-2).Equal(combatOnly[0].Amount()))
	require.Len(t, page, 1)
	assert.Equal(t, ledger.TransactionTypeProductionClaim, page[0].TransactionType())
	assert.Equal(t, 3, count)
}
