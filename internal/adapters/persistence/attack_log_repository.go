package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/gangsim/internal/domain/shared"
	"github.com/andrescamacho/gangsim/internal/domain/site"
)

// GormAttackLogRepository implements site.AttackHistory using GORM
type GormAttackLogRepository struct {
	db *gorm.DB
}

// NewGormAttackLogRepository creates a new GORM attack log repository
func NewGormAttackLogRepository(db *gorm.DB) *GormAttackLogRepository {
	return &GormAttackLogRepository{db: db}
}

// Record persists one resolved attack
func (r *GormAttackLogRepository) Record(ctx context.Context, siteAddr shared.Address, index int, rec site.AttackRecord, op *shared.OperationContext) error {
	model := &AttackLogModel{
		Site:         string(siteAddr),
		LogIndex:     index,
		AttackerType: string(rec.Attacker.Type),
		AttackerID:   rec.Attacker.ID,
		DefenderType: string(rec.Defender.Type),
		DefenderID:   rec.Defender.ID,
		Cost:         rec.Cost,
		Winnings:     rec.Winnings,
		WinBps:       rec.WinBps,
		Timestamp:    rec.Timestamp,
	}
	if op.IsValid() {
		model.OperationID = op.OperationID
	}

	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to record attack %d at %s: %w", index, siteAddr, result.Error)
	}
	return nil
}

// FindBySite returns the site's attacks, most recent first
func (r *GormAttackLogRepository) FindBySite(ctx context.Context, siteAddr shared.Address, limit, offset int) ([]site.AttackRecord, error) {
	query := r.db.WithContext(ctx).Where("site = ?", string(siteAddr)).Order("log_index DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []AttackLogModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find attacks at %s: %w", siteAddr, result.Error)
	}

	records := make([]site.AttackRecord, len(models))
	for i, m := range models {
		records[i] = site.AttackRecord{
			Attacker:  shared.EntityRef{Type: shared.EntityType(m.AttackerType), ID: m.AttackerID},
			Defender:  shared.EntityRef{Type: shared.EntityType(m.DefenderType), ID: m.DefenderID},
			Cost:      m.Cost,
			Winnings:  m.Winnings,
			WinBps:    m.WinBps,
			Timestamp: m.Timestamp,
		}
	}
	return records, nil
}

// CountBySite returns how many attacks the site recorded
func (r *GormAttackLogRepository) CountBySite(ctx context.Context, siteAddr shared.Address) (int, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&AttackLogModel{}).Where("site = ?", string(siteAddr)).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count attacks at %s: %w", siteAddr, result.Error)
	}
	return int(count), nil
}
