package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM transaction repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create persists a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	result := r.db.WithContext(ctx).Create(r.transactionToModel(transaction))
	if result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

// FindByID retrieves a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	var model TransactionModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &ledger.ErrTransactionNotFound{ID: id.String()}
		}
		return nil, fmt.Errorf("failed to find transaction: %w", result.Error)
	}
	return r.modelToTransaction(&model)
}

// FindByOwner retrieves transactions for an entity with optional filtering
func (r *GormTransactionRepository) FindByOwner(ctx context.Context, owner shared.EntityRef, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	query := r.ownerQuery(ctx, owner, opts)

	orderBy := "timestamp DESC"
	if opts.OrderBy != "" {
		orderBy = opts.OrderBy
	}
	query = query.Order(orderBy)

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []TransactionModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", result.Error)
	}

	transactions := make([]*ledger.Transaction, len(models))
	for i := range models {
		tx, err := r.modelToTransaction(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert transaction model: %w", err)
		}
		transactions[i] = tx
	}
	return transactions, nil
}

// CountByOwner returns the count of transactions matching the criteria
func (r *GormTransactionRepository) CountByOwner(ctx context.Context, owner shared.EntityRef, opts ledger.QueryOptions) (int, error) {
	var count int64
	if result := r.ownerQuery(ctx, owner, opts).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", result.Error)
	}
	return int(count), nil
}

func (r *GormTransactionRepository) ownerQuery(ctx context.Context, owner shared.EntityRef, opts ledger.QueryOptions) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&TransactionModel{}).
		Where("owner_type = ? AND owner_id = ?", string(owner.Type), owner.ID)
	return r.applyFilters(query, opts)
}

// applyFilters applies query options to a GORM query
func (r *GormTransactionRepository) applyFilters(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		query = query.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Currency != nil {
		query = query.Where("currency = ?", string(*opts.Currency))
	}
	if opts.Category != nil {
		query = query.Where("category = ?", opts.Category.String())
	}
	if opts.TransactionType != nil {
		query = query.Where("transaction_type = ?", opts.TransactionType.String())
	}
	if opts.OperationType != nil {
		query = query.Where("operation_type = ?", *opts.OperationType)
	}
	return query
}

// modelToTransaction converts database model to domain entity
func (r *GormTransactionRepository) modelToTransaction(model *TransactionModel) (*ledger.Transaction, error) {
	id, err := ledger.ParseTransactionID(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction ID in database: %w", err)
	}

	transactionType, err := ledger.ParseTransactionType(model.TransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type in database: %w", err)
	}

	var counterparty shared.EntityRef
	if model.CounterpartyType != "" {
		counterparty = shared.EntityRef{Type: shared.EntityType(model.CounterpartyType), ID: model.CounterpartyID}
	}

	return ledger.ReconstructTransaction(id, ledger.TransactionParams{
		Owner:         shared.EntityRef{Type: shared.EntityType(model.OwnerType), ID: model.OwnerID},
		Currency:      shared.Address(model.Currency),
		Timestamp:     model.Timestamp,
		Type:          transactionType,
		Amount:        model.Amount,
		SharesDelta:   model.SharesDelta,
		BalanceBefore: model.BalanceBefore,
		BalanceAfter:  model.BalanceAfter,
		Counterparty:  counterparty,
		Description:   model.Description,
		Operation:     shared.NewOperationContext(model.OperationID, model.OperationType),
	}), nil
}

// transactionToModel converts domain entity to database model
func (r *GormTransactionRepository) transactionToModel(tx *ledger.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:               tx.ID().String(),
		OwnerType:        string(tx.Owner().Type),
		OwnerID:          tx.Owner().ID,
		Currency:         string(tx.Currency()),
		Timestamp:        tx.Timestamp(),
		TransactionType:  tx.TransactionType().String(),
		Category:         tx.Category().String(),
		Amount:           tx.Amount(),
		SharesDelta:      tx.SharesDelta(),
		BalanceBefore:    tx.BalanceBefore(),
		BalanceAfter:     tx.BalanceAfter(),
		CounterpartyType: string(tx.Counterparty().Type),
		CounterpartyID:   tx.Counterparty().ID,
		Description:      tx.Description(),
		OperationType:    tx.OperationType(),
		OperationID:      tx.OperationID(),
	}
}
