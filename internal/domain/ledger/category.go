package ledger

import "fmt"

// Category groups transactions for cash flow reporting
type Category string

const (
	// CategoryCustody covers plain deposits and withdrawals
	CategoryCustody Category = "CUSTODY"

	// CategoryProduction covers resources claimed from production sites
	CategoryProduction Category = "PRODUCTION"

	// CategoryCombat covers attack costs, winnings and losses
	CategoryCombat Category = "COMBAT"
)

// AllCategories returns all valid categories
func AllCategories() []Category {
	return []Category{CategoryCustody, CategoryProduction, CategoryCombat}
}

// TypeToCategoryMap maps transaction types to their categories
var TypeToCategoryMap = map[TransactionType]Category{
	TransactionTypeDeposit:         CategoryCustody,
	TransactionTypeWithdrawal:      CategoryCustody,
	TransactionTypeProductionClaim: CategoryProduction,
	TransactionTypeAttackCost:      CategoryCombat,
	TransactionTypeAttackWinnings:  CategoryCombat,
	TransactionTypeAttackLoss:      CategoryCombat,
}

func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryCustody, CategoryProduction, CategoryCombat:
		return true
	default:
		return false
	}
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
