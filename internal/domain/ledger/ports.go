package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Tokens is the fungible currency collaborator
type Tokens interface {
	BalanceOf(ctx context.Context, currency, account shared.Address) (decimal.Decimal, error)
	// Transfer fails with InsufficientBalance when from holds less than amount
	Transfer(ctx context.Context, currency, from, to shared.Address, amount decimal.Decimal) error
}

// MintBurner is the supply capability granted to production sites and combat
type MintBurner interface {
	Mint(ctx context.Context, currency, to shared.Address, amount decimal.Decimal) error
	Burn(ctx context.Context, currency, from shared.Address, amount decimal.Decimal) error
}

// Locator resolves where an entity currently resides
type Locator interface {
	LocationOf(ctx context.Context, ref shared.EntityRef) (shared.Address, error)
}

// TransactionObserver is notified of every committed ledger transaction
type TransactionObserver interface {
	TransactionCommitted(ctx context.Context, tx *Transaction)
}

// TransactionRepository defines persistence operations for transactions
type TransactionRepository interface {
	// Create persists a new transaction
	Create(ctx context.Context, transaction *Transaction) error

	// FindByID retrieves a transaction by its ID
	FindByID(ctx context.Context, id TransactionID) (*Transaction, error)

	// FindByOwner retrieves transactions for an entity with optional filtering
	FindByOwner(ctx context.Context, owner shared.EntityRef, opts QueryOptions) ([]*Transaction, error)

	// CountByOwner returns the count of transactions matching the criteria
	CountByOwner(ctx context.Context, owner shared.EntityRef, opts QueryOptions) (int, error)
}

// QueryOptions defines filtering and pagination options for transaction queries
type QueryOptions struct {
	// Date range filtering
	StartDate *time.Time
	EndDate   *time.Time

	Currency        *shared.Address
	Category        *Category
	TransactionType *TransactionType
	OperationType   *string

	// Pagination
	Limit  int
	Offset int

	// Sorting: "timestamp ASC" or "timestamp DESC" (default DESC)
	OrderBy string
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:   50,
		Offset:  0,
		OrderBy: "timestamp DESC",
	}
}
