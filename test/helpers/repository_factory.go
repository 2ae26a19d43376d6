package helpers

import (
	"gorm.io/gorm"

	"github.com/andrescamacho/gangsim/internal/adapters/persistence"
)

// TestRepositories holds all real repository instances for integration tests
type TestRepositories struct {
	DB              *gorm.DB
	TransactionRepo *persistence.GormTransactionRepository
	AttackLogRepo   *persistence.GormAttackLogRepository
}

// NewTestRepositories creates all real repository instances using shared test DB
func NewTestRepositories() *TestRepositories {
	db := SharedTestDB
	return &TestRepositories{
		DB:              db,
		TransactionRepo: persistence.NewGormTransactionRepository(db),
		AttackLogRepo:   persistence.NewGormAttackLogRepository(db),
	}
}
