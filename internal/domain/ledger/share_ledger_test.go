package ledger_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/adapters/token"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/pkg/utils"
	"github.com/andrescamacho/gangsim/test/helpers"
)

const (
	usd   shared.Address = "czusd"
	store shared.Address = "entity-store"
	town  shared.Address = "town-square"
)

var (
	time0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	gang0 = shared.EntityRef{Type: "gangs", ID: 0}
	gang1 = shared.EntityRef{Type: "gangs", ID: 1}
	gang2 = shared.EntityRef{Type: "gangs", ID: 2}
)

type recordingObserver struct {
	mu  sync.Mutex
	txs []*ledger.Transaction
}

func (r *recordingObserver) TransactionCommitted(_ context.Context, tx *ledger.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
}

type fixture struct {
	bank     *token.Bank
	locator  *helpers.MockLocator
	ledger   *ledger.ShareLedger
	observer *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bank:     token.NewBank(),
		locator:  helpers.NewMockLocator(),
		observer: &recordingObserver{},
	}
	f.ledger = ledger.NewShareLedger(store, f.bank, f.locator, shared.NewMockClock(time0), ledger.WithObserver(f.observer))
	for _, g := range []shared.EntityRef{gang0, gang1, gang2} {
		f.locator.Place(g, town)
	}
	require.NoError(t, f.bank.Mint(context.Background(), usd, town, utils.Units(300)))
	return f
}

func (f *fixture) stored(t *testing.T, g shared.EntityRef) decimal.Decimal {
	t.Helper()
	v, err := f.ledger.RedeemableAmount(context.Background(), g, usd)
	require.NoError(t, err)
	return v
}

func (f *fixture) rate(t *testing.T) decimal.Decimal {
	t.Helper()
	v, err := f.ledger.ExchangeRate(context.Background(), usd)
	require.NoError(t, err)
	return v
}

func eq(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestShareLedger_OnlyEntityLocationMayMoveBalance(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)

	// Act & Assert
	err := f.ledger.Deposit(ctx, "player1", gang0, usd, utils.Units(1))
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)

	err = f.ledger.Withdraw(ctx, "player1", gang0, usd, utils.Units(1))
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)

	unplaced := shared.EntityRef{Type: "gangs", ID: 99}
	err = f.ledger.Deposit(ctx, shared.ZeroAddress, unplaced, usd, utils.Units(1))
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestShareLedger_DepositMoreThanCallerHoldsFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(301))

	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	eq(t, decimal.Zero, f.ledger.TotalShares(usd))
	assert.Empty(t, f.observer.txs)
}

func TestShareLedger_WithdrawMoreThanRedeemableFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(1)))

	err := f.ledger.Withdraw(ctx, town, gang0, usd, utils.Units(1).Add(decimal.NewFromInt(1)))

	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	eq(t, utils.Units(1), f.stored(t, gang0))
}

func TestShareLedger_BootstrapDeposit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)

	// Act
	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, decimal.NewFromInt(1)))

	// Assert
	poolBalance, err := f.ledger.PoolBalance(ctx, usd)
	require.NoError(t, err)
	eq(t, decimal.NewFromInt(1), poolBalance)
	eq(t, decimal.New(1, 8), f.rate(t))
	eq(t, decimal.New(1, 8), f.ledger.TotalShares(usd))
	eq(t, decimal.NewFromInt(1), f.stored(t, gang0))
}

func TestShareLedger_DepositWithdrawRoundTripKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, decimal.NewFromInt(1)))

	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(1)))
	require.NoError(t, f.ledger.Withdraw(ctx, town, gang0, usd, utils.Units(1)))

	eq(t, decimal.New(1, 8), f.rate(t))
	eq(t, decimal.New(1, 8), f.ledger.TotalShares(usd))
	eq(t, decimal.NewFromInt(1), f.stored(t, gang0))
	townBalance, _ := f.bank.BalanceOf(ctx, usd, town)
	eq(t, utils.Units(300).Sub(decimal.NewFromInt(1)), townBalance)
}

func TestShareLedger_RebaseRevaluesEveryHolder(t *testing.T) {
	// Arrange: three holders making up exactly 1 unit
	ctx := context.Background()
	f := newFixture(t)
	tenth := utils.WAD.Div(decimal.NewFromInt(10))
	ninth := utils.WAD.Mul(decimal.NewFromFloat(0.9)).Sub(decimal.NewFromInt(1))

	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, decimal.NewFromInt(1)))
	require.NoError(t, f.ledger.Deposit(ctx, town, gang1, usd, tenth))
	require.NoError(t, f.ledger.Deposit(ctx, town, gang2, usd, ninth))

	eq(t, decimal.New(1, 8), f.rate(t))
	eq(t, tenth, f.stored(t, gang1))
	eq(t, ninth, f.stored(t, gang2))
	eq(t, utils.WAD.Mul(decimal.New(1, 8)), f.ledger.TotalShares(usd))

	cases := []struct {
		name   string
		mint   decimal.Decimal
		burn   decimal.Decimal
		factor int64
		rate   decimal.Decimal
	}{
		{name: "up x10", mint: utils.Units(9), factor: 10, rate: decimal.New(1, 7)},
		{name: "back to origin", burn: utils.Units(9), factor: 1, rate: decimal.New(1, 8)},
		{name: "up x4", mint: utils.Units(3), factor: 4, rate: decimal.NewFromInt(25000000)},
		{name: "down to x2", burn: utils.Units(2), factor: 2, rate: decimal.NewFromInt(50000000)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			if tc.mint.IsPositive() {
				require.NoError(t, f.bank.Mint(ctx, usd, store, tc.mint))
			}
			if tc.burn.IsPositive() {
				require.NoError(t, f.bank.Burn(ctx, usd, store, tc.burn))
			}

			// Assert
			factor := decimal.NewFromInt(tc.factor)
			eq(t, tc.rate, f.rate(t))
			eq(t, utils.WAD.Mul(decimal.New(1, 8)), f.ledger.TotalShares(usd))
			eq(t, factor, f.stored(t, gang0))
			eq(t, tenth.Mul(factor), f.stored(t, gang1))
			eq(t, ninth.Mul(factor), f.stored(t, gang2))
		})
	}
}

func TestShareLedger_DrainedPoolRejectsDeposits(t *testing.T) {
	// Arrange: the only holder's backing is burned away
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(10)))
	require.NoError(t, f.bank.Burn(ctx, usd, store, utils.Units(10)))
	sharesBefore := f.ledger.TotalShares(usd)

	// Act
	err := f.ledger.Deposit(ctx, town, gang1, usd, utils.Units(5))

	// Assert
	assert.ErrorIs(t, err, shared.ErrArithmeticOverflow)
	eq(t, decimal.Zero, f.ledger.SharesOf(gang1, usd))
	eq(t, sharesBefore, f.ledger.TotalShares(usd))
	townBalance, _ := f.bank.BalanceOf(ctx, usd, town)
	eq(t, utils.Units(290), townBalance)
	_, err = f.ledger.ExchangeRate(ctx, usd)
	assert.ErrorIs(t, err, shared.ErrArithmeticOverflow)

	// Refilling the pool restores the original rate
	require.NoError(t, f.bank.Mint(ctx, usd, store, utils.Units(10)))
	eq(t, decimal.New(1, 8), f.rate(t))
	require.NoError(t, f.ledger.Deposit(ctx, town, gang1, usd, utils.Units(5)))
	eq(t, utils.Units(5), f.stored(t, gang1))
	eq(t, utils.Units(10), f.stored(t, gang0))
}

func TestShareLedger_RandomSequenceConservesRedeemable(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bank.Mint(ctx, usd, town, utils.Units(10000)))
	gangs := []shared.EntityRef{gang0, gang1, gang2}
	rng := rand.New(rand.NewSource(42))
	net := decimal.Zero

	for op := 1; op <= 200; op++ {
		// Act
		g := gangs[rng.Intn(len(gangs))]
		redeemable := f.stored(t, g)
		if rng.Intn(2) == 0 || redeemable.IsZero() {
			amount := decimal.NewFromInt(rng.Int63n(5e18) + 1)
			require.NoError(t, f.ledger.Deposit(ctx, town, g, usd, amount), "op %d", op)
			net = net.Add(amount)
		} else {
			amount := redeemable.Mul(decimal.NewFromFloat(rng.Float64())).Floor()
			if !amount.IsPositive() {
				amount = decimal.NewFromInt(1)
			}
			require.NoError(t, f.ledger.Withdraw(ctx, town, g, usd, amount), "op %d", op)
			net = net.Sub(amount)
		}

		// Assert: net - Σ redeemable ∈ [0, ops]
		sum := decimal.Zero
		for _, h := range gangs {
			sum = sum.Add(f.stored(t, h))
		}
		slack := net.Sub(sum)
		require.False(t, slack.IsNegative(), "op %d: redeemable %s exceeds net %s", op, sum, net)
		require.True(t, slack.LessThanOrEqual(decimal.NewFromInt(int64(op))), "op %d: slack %s", op, slack)
	}
}

type failingLocator struct{ err error }

func (l failingLocator) LocationOf(context.Context, shared.EntityRef) (shared.Address, error) {
	return shared.ZeroAddress, l.err
}

func TestShareLedger_LocatorFailureIsNotPermissionDenied(t *testing.T) {
	ctx := context.Background()
	bank := token.NewBank()
	lookupErr := errors.New("graph unavailable")
	l := ledger.NewShareLedger(store, bank, failingLocator{err: lookupErr}, shared.NewMockClock(time0))

	err := l.Deposit(ctx, town, gang0, usd, utils.Units(1))

	assert.ErrorIs(t, err, lookupErr)
	assert.NotErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestShareLedger_SharesSumToTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(3)))
	require.NoError(t, f.bank.Mint(ctx, usd, store, utils.Units(1)))
	require.NoError(t, f.ledger.Deposit(ctx, town, gang1, usd, utils.Units(7)))
	require.NoError(t, f.ledger.Withdraw(ctx, town, gang0, usd, utils.Units(2)))

	sum := decimal.Zero
	for _, h := range f.ledger.Holders(usd) {
		sum = sum.Add(f.ledger.SharesOf(h, usd))
	}
	eq(t, f.ledger.TotalShares(usd), sum)
}

func TestShareLedger_JournalsAnnotatedTransactions(t *testing.T) {
	// Arrange
	ctx := shared.WithOperation(context.Background(), shared.NewOperationContext("claim-1", "claim"))
	f := newFixture(t)

	// Act
	annotated := ledger.Annotate(ctx, ledger.Annotation{Type: ledger.TransactionTypeProductionClaim, Description: "daily output"})
	require.NoError(t, f.ledger.Deposit(annotated, town, gang0, usd, utils.Units(2)))
	require.NoError(t, f.ledger.Withdraw(ctx, town, gang0, usd, utils.Units(1)))

	// Assert
	require.Len(t, f.observer.txs, 2)
	claim, withdrawal := f.observer.txs[0], f.observer.txs[1]
	assert.Equal(t, ledger.TransactionTypeProductionClaim, claim.TransactionType())
	assert.Equal(t, ledger.CategoryProduction, claim.Category())
	assert.Equal(t, "claim-1", claim.OperationID())
	eq(t, utils.Units(2), claim.Amount())
	eq(t, decimal.Zero, claim.BalanceBefore())
	eq(t, utils.Units(2), claim.BalanceAfter())

	assert.Equal(t, ledger.TransactionTypeWithdrawal, withdrawal.TransactionType())
	eq(t, utils.Units(-1), withdrawal.Amount())
	assert.True(t, withdrawal.SharesDelta().IsNegative())
	assert.Equal(t, time0, withdrawal.Timestamp())
}

func TestShareLedger_FailedOperationRollsBackAndSkipsJournal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := shared.Atomically(ctx, func(ctx context.Context) error {
		if err := f.ledger.Deposit(ctx, town, gang0, usd, utils.Units(5)); err != nil {
			return err
		}
		return errors.New("abort")
	})

	require.Error(t, err)
	eq(t, decimal.Zero, f.ledger.TotalShares(usd))
	eq(t, decimal.Zero, f.stored(t, gang0))
	townBalance, _ := f.bank.BalanceOf(ctx, usd, town)
	eq(t, utils.Units(300), townBalance)
	assert.Empty(t, f.observer.txs)
}

func TestShareLedger_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.ledger.Deposit(ctx, town, gang0, usd, decimal.Zero), shared.ErrInvalidTransition)
	assert.ErrorIs(t, f.ledger.Withdraw(ctx, town, gang0, usd, decimal.NewFromInt(-1)), shared.ErrInvalidTransition)
}
