package holdings

import (
	"sort"

	"quota-backend/internal/database"
	"quota-backend/internal/models"

	"gorm.io/gorm"
)

// SortedUniqueKeys returns a deduplicated copy of keys in canonical
// lexicographic (holder, source, resource) order. Every batch operation
// locks holdings in this order; concurrent overlapping batches therefore
// acquire locks in the same sequence and cannot deadlock.
func SortedUniqueKeys(keys []models.HoldingKey) []models.HoldingKey {
	out := make([]models.HoldingKey, 0, len(keys))
	seen := make(map[models.HoldingKey]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Get loads the holdings for keys without locking them. Keys with no
// holding row are simply absent from the returned map; deciding whether
// that is an error is the caller's business.
func Get(db *gorm.DB, keys []models.HoldingKey) (map[models.HoldingKey]*models.Holding, error) {
	return getKeys(db, keys)
}

// GetForUpdate loads and exclusively locks the holdings for keys inside the
// caller's transaction. Absent keys are handled as in Get.
func GetForUpdate(tx *gorm.DB, keys []models.HoldingKey) (map[models.HoldingKey]*models.Holding, error) {
	return getKeys(database.ForUpdate(tx), keys)
}

func getKeys(q *gorm.DB, keys []models.HoldingKey) (map[models.HoldingKey]*models.Holding, error) {
	found := make(map[models.HoldingKey]*models.Holding, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	sorted := SortedUniqueKeys(keys)
	tuples := make([][]interface{}, len(sorted))
	for i, k := range sorted {
		tuples[i] = []interface{}{k.Holder, k.Source, k.Resource}
	}

	var rows []models.Holding
	if err := q.
		Where("(holder, source, resource) IN ?", tuples).
		Order("holder, source, resource").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		found[rows[i].Key()] = &rows[i]
	}
	return found, nil
}

// SaveAll persists mutated holdings inside the caller's transaction. Rows
// must already exist and be locked via GetForUpdate.
func SaveAll(tx *gorm.DB, hs []*models.Holding) error {
	for _, h := range hs {
		if err := tx.Save(h).Error; err != nil {
			return err
		}
	}
	return nil
}
