package audit

import (
	"context"

	"quota-backend/internal/models"

	"gorm.io/gorm"
)

// reasonMax is how much caller-supplied reason text survives truncation.
// With the 7-character ACCEPT:/REJECT: prefix the stored reason fits the
// 128-character column.
const reasonMax = 121

// ResolutionReason builds the stored audit reason: an ACCEPT: or REJECT:
// prefix plus the last 121 characters of the caller-supplied text.
func ResolutionReason(accept bool, reason string) string {
	if r := []rune(reason); len(r) > reasonMax {
		reason = string(r[len(r)-reasonMax:])
	}
	if accept {
		return "ACCEPT:" + reason
	}
	return "REJECT:" + reason
}

// Append writes provision log rows inside the caller's transaction. The log
// is append-only; nothing in the engine updates or deletes these rows.
func Append(tx *gorm.DB, entries []models.ProvisionLog) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

// Service exposes read-only queries over the provision log for diagnostics
// and reconciliation.
type Service struct {
	DB *gorm.DB
}

// GetLogs returns log rows matching the filters, oldest first. serial 0 and
// empty slices match everything.
func (s *Service) GetLogs(ctx context.Context, serial int64, holders, sources, resources []string) ([]models.ProvisionLog, error) {
	q := s.DB.WithContext(ctx).Model(&models.ProvisionLog{})
	if serial != 0 {
		q = q.Where("serial = ?", serial)
	}
	if len(holders) > 0 {
		q = q.Where("holder IN ?", holders)
	}
	if len(sources) > 0 {
		q = q.Where("source IN ?", sources)
	}
	if len(resources) > 0 {
		q = q.Where("resource IN ?", resources)
	}

	var rows []models.ProvisionLog
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
