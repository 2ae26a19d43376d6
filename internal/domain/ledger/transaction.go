package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// Transaction is an immutable journal entry describing one share ledger movement.
// Amount is signed: positive when the owner's redeemable balance grows.
type Transaction struct {
	id              TransactionID
	owner           shared.EntityRef
	currency        shared.Address
	timestamp       time.Time
	transactionType TransactionType
	category        Category
	amount          decimal.Decimal
	sharesDelta     decimal.Decimal
	balanceBefore   decimal.Decimal
	balanceAfter    decimal.Decimal
	counterparty    shared.EntityRef
	description     string
	operationType   string
	operationID     string
}

// TransactionParams carries the fields of a new journal entry
type TransactionParams struct {
	Owner         shared.EntityRef
	Currency      shared.Address
	Timestamp     time.Time
	Type          TransactionType
	Amount        decimal.Decimal
	SharesDelta   decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Counterparty  shared.EntityRef
	Description   string
	Operation     *shared.OperationContext
}

// NewTransaction creates a new transaction with validation
func NewTransaction(p TransactionParams) (*Transaction, error) {
	if p.Owner.IsZero() {
		return nil, &ErrInvalidTransaction{Field: "owner", Reason: "owner cannot be empty"}
	}
	if p.Currency.IsZero() {
		return nil, &ErrInvalidTransaction{Field: "currency", Reason: "currency cannot be empty"}
	}
	if !p.Type.IsValid() {
		return nil, &ErrInvalidTransaction{
			Field:  "transaction_type",
			Reason: fmt.Sprintf("invalid transaction type: %s", p.Type),
		}
	}
	category, err := p.Type.ToCategory()
	if err != nil {
		return nil, &ErrInvalidTransaction{Field: "category", Reason: err.Error()}
	}

	t := &Transaction{
		id:              NewTransactionID(),
		owner:           p.Owner,
		currency:        p.Currency,
		timestamp:       p.Timestamp,
		transactionType: p.Type,
		category:        category,
		amount:          p.Amount,
		sharesDelta:     p.SharesDelta,
		balanceBefore:   p.BalanceBefore,
		balanceAfter:    p.BalanceAfter,
		counterparty:    p.Counterparty,
		description:     p.Description,
	}
	if p.Operation.IsValid() {
		t.operationType = p.Operation.OperationType
		t.operationID = p.Operation.OperationID
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReconstructTransaction reconstructs a transaction from persistence
// This bypasses validation and is used by the repository
func ReconstructTransaction(id TransactionID, p TransactionParams) *Transaction {
	category, _ := p.Type.ToCategory()
	t := &Transaction{
		id:              id,
		owner:           p.Owner,
		currency:        p.Currency,
		timestamp:       p.Timestamp,
		transactionType: p.Type,
		category:        category,
		amount:          p.Amount,
		sharesDelta:     p.SharesDelta,
		balanceBefore:   p.BalanceBefore,
		balanceAfter:    p.BalanceAfter,
		counterparty:    p.Counterparty,
		description:     p.Description,
	}
	if p.Operation != nil {
		t.operationType = p.Operation.OperationType
		t.operationID = p.Operation.OperationID
	}
	return t
}

// Validate checks that the transaction satisfies all invariants
func (t *Transaction) Validate() error {
	if t.amount.IsZero() {
		return &ErrInvalidTransaction{Field: "amount", Reason: "amount cannot be zero"}
	}
	if t.transactionType.IsCredit() != t.amount.IsPositive() {
		return &ErrInvalidTransaction{
			Field:  "amount",
			Reason: fmt.Sprintf("sign of %s does not match %s", t.amount, t.transactionType),
		}
	}
	if t.sharesDelta.Sign()*t.amount.Sign() < 0 {
		return &ErrInvalidTransaction{
			Field:  "shares_delta",
			Reason: fmt.Sprintf("shares moved %s while amount moved %s", t.sharesDelta, t.amount),
		}
	}
	return nil
}

// Getters (all fields are immutable)

func (t *Transaction) ID() TransactionID                { return t.id }
func (t *Transaction) Owner() shared.EntityRef          { return t.owner }
func (t *Transaction) Currency() shared.Address         { return t.currency }
func (t *Transaction) Timestamp() time.Time             { return t.timestamp }
func (t *Transaction) TransactionType() TransactionType { return t.transactionType }
func (t *Transaction) Category() Category               { return t.category }
func (t *Transaction) Amount() decimal.Decimal          { return t.amount }
func (t *Transaction) SharesDelta() decimal.Decimal     { return t.sharesDelta }
func (t *Transaction) BalanceBefore() decimal.Decimal   { return t.balanceBefore }
func (t *Transaction) BalanceAfter() decimal.Decimal    { return t.balanceAfter }
func (t *Transaction) Counterparty() shared.EntityRef   { return t.counterparty }
func (t *Transaction) Description() string              { return t.description }
func (t *Transaction) OperationType() string            { return t.operationType }
func (t *Transaction) OperationID() string              { return t.operationID }

// IsIncome returns true if the transaction grew the owner's balance
func (t *Transaction) IsIncome() bool {
	return t.amount.IsPositive()
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction[%s, owner=%s, type=%s, amount=%s, balance=%s->%s]",
		t.id, t.owner, t.transactionType, t.amount, t.balanceBefore, t.balanceAfter)
}
