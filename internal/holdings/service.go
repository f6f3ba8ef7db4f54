package holdings

import (
	"context"

	"quota-backend/internal/database"
	"quota-backend/internal/models"

	"gorm.io/gorm"
)

// Service encapsulates quota administration over the holding store. All
// writes run inside one row-locking transaction, so concurrent quota edits
// and commission issuance serialize on the affected holdings.
type Service struct {
	DB *gorm.DB
}

// QuotaEntry is one set-quota input: a holding key plus its new limit.
type QuotaEntry struct {
	models.HoldingKey
	Limit int64 `json:"limit"`
}

// SetQuota creates each holding on first use and overwrites its limit
// otherwise, preserving existing usage. Lock-then-replace: all affected
// existing rows are locked up front so a concurrent issue cannot interleave.
func (s *Service) SetQuota(ctx context.Context, entries []QuotaEntry) error {
	if len(entries) == 0 {
		return nil
	}
	keys := make([]models.HoldingKey, len(entries))
	for i, e := range entries {
		keys[i] = e.HoldingKey
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := GetForUpdate(tx, keys)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if h, ok := existing[e.HoldingKey]; ok {
				h.Limit = e.Limit
				if err := tx.Save(h).Error; err != nil {
					return err
				}
				continue
			}
			h := models.Holding{
				Holder:   e.Holder,
				Source:   e.Source,
				Resource: e.Resource,
				Limit:    e.Limit,
			}
			if err := tx.Create(&h).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetQuota returns a read-only snapshot of holdings matching the filters.
// Empty filters match everything.
func (s *Service) GetQuota(ctx context.Context, holders, sources, resources []string) ([]models.Holding, error) {
	q := s.DB.WithContext(ctx).Model(&models.Holding{})
	q = applyFilters(q, holders, sources, resources)

	var rows []models.Holding
	if err := q.Order("holder, source, resource").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AddResourceLimit locks every holding matching the filters and adds diff to
// its limit, leaving usage untouched. Administrative capacity change, not
// part of the commit protocol. A negative diff clamps at zero so the limit
// stays non-negative.
func (s *Service) AddResourceLimit(ctx context.Context, holders, sources, resources []string, diff int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := database.ForUpdate(tx.Model(&models.Holding{}))
		q = applyFilters(q, holders, sources, resources)

		var rows []models.Holding
		if err := q.Order("holder, source, resource").Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].Limit += diff
			if rows[i].Limit < 0 {
				rows[i].Limit = 0
			}
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func applyFilters(q *gorm.DB, holders, sources, resources []string) *gorm.DB {
	if len(holders) > 0 {
		q = q.Where("holder IN ?", holders)
	}
	if len(sources) > 0 {
		q = q.Where("source IN ?", sources)
	}
	if len(resources) > 0 {
		q = q.Where("resource IN ?", resources)
	}
	return q
}
