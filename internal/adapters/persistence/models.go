package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts are stored as text so 18-decimal values keep full precision on SQLite

// TransactionModel represents the gang_transactions table
type TransactionModel struct {
	ID               string          `gorm:"column:id;primaryKey"`
	OwnerType        string          `gorm:"column:owner_type;not null;index:idx_transactions_owner"`
	OwnerID          uint64          `gorm:"column:owner_id;not null;index:idx_transactions_owner"`
	Currency         string          `gorm:"column:currency;not null;index"`
	Timestamp        time.Time       `gorm:"column:timestamp;not null;index"`
	TransactionType  string          `gorm:"column:transaction_type;not null"`
	Category         string          `gorm:"column:category;not null;index"`
	Amount           decimal.Decimal `gorm:"column:amount;type:varchar(96);not null"`
	SharesDelta      decimal.Decimal `gorm:"column:shares_delta;type:varchar(96);not null"`
	BalanceBefore    decimal.Decimal `gorm:"column:balance_before;type:varchar(96);not null"`
	BalanceAfter     decimal.Decimal `gorm:"column:balance_after;type:varchar(96);not null"`
	CounterpartyType string          `gorm:"column:counterparty_type"`
	CounterpartyID   uint64          `gorm:"column:counterparty_id"`
	Description      string          `gorm:"column:description;type:text"`
	OperationType    string          `gorm:"column:operation_type;index"`
	OperationID      string          `gorm:"column:operation_id;index"`
}

func (TransactionModel) TableName() string {
	return "gang_transactions"
}

// AttackLogModel represents the attack_log table
type AttackLogModel struct {
	ID           uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Site         string          `gorm:"column:site;not null;uniqueIndex:idx_attack_log_site_index"`
	LogIndex     int             `gorm:"column:log_index;not null;uniqueIndex:idx_attack_log_site_index"`
	AttackerType string          `gorm:"column:attacker_type;not null"`
	AttackerID   uint64          `gorm:"column:attacker_id;not null"`
	DefenderType string          `gorm:"column:defender_type;not null"`
	DefenderID   uint64          `gorm:"column:defender_id;not null"`
	Cost         decimal.Decimal `gorm:"column:cost;type:varchar(96);not null"`
	Winnings     decimal.Decimal `gorm:"column:winnings;type:varchar(96);not null"`
	WinBps       decimal.Decimal `gorm:"column:win_bps;type:varchar(96);not null"`
	Timestamp    time.Time       `gorm:"column:timestamp;not null"`
	OperationID  string          `gorm:"column:operation_id"`
}

func (AttackLogModel) TableName() string {
	return "attack_log"
}

// AllModels lists every table managed by the persistence adapters
func AllModels() []interface{} {
	return []interface{}{
		&TransactionModel{},
		&AttackLogModel{},
	}
}
