package ledger

import "fmt"

// TransactionType represents the cause of a share ledger movement
type TransactionType string

const (
	// TransactionTypeDeposit represents currency deposited on behalf of an entity
	TransactionTypeDeposit TransactionType = "DEPOSIT"

	// TransactionTypeWithdrawal represents currency withdrawn on behalf of an entity
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"

	// TransactionTypeProductionClaim represents site production minted and deposited for a gang
	TransactionTypeProductionClaim TransactionType = "PRODUCTION_CLAIM"

	// TransactionTypeAttackCost represents the fee burned from an attacker when an attack resolves
	TransactionTypeAttackCost TransactionType = "ATTACK_COST"

	// TransactionTypeAttackWinnings represents currency credited to a successful attacker
	TransactionTypeAttackWinnings TransactionType = "ATTACK_WINNINGS"

	// TransactionTypeAttackLoss represents currency taken from a defender
	TransactionTypeAttackLoss TransactionType = "ATTACK_LOSS"
)

// AllTransactionTypes returns all valid transaction types
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeDeposit,
		TransactionTypeWithdrawal,
		TransactionTypeProductionClaim,
		TransactionTypeAttackCost,
		TransactionTypeAttackWinnings,
		TransactionTypeAttackLoss,
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	_, ok := TypeToCategoryMap[t]
	return ok
}

// IsCredit reports whether the type adds to the owner's balance
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeProductionClaim, TransactionTypeAttackWinnings:
		return true
	default:
		return false
	}
}

// ToCategory maps the transaction type to its category
func (t TransactionType) ToCategory() (Category, error) {
	category, exists := TypeToCategoryMap[t]
	if !exists {
		return "", fmt.Errorf("unknown transaction type: %s", t)
	}
	return category, nil
}

// ParseTransactionType parses a string into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
	return t, nil
}
