package commission

import (
	"context"
	"sort"
	"time"

	"quota-backend/internal/audit"
	"quota-backend/internal/database"
	"quota-backend/internal/holdings"
	"quota-backend/internal/models"
	"quota-backend/internal/quota"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service orchestrates the commission lifecycle: issuing a batch of
// provisions as one atomic hold, and later resolving pending commissions by
// accepting or rejecting them. It is the only entry point callers use to
// mutate holdings.
type Service struct {
	DB *gorm.DB
}

// ProvisionInput is one line item of an issue request. Quantity is signed:
// positive imports (reserves), negative releases.
type ProvisionInput struct {
	models.HoldingKey
	Quantity int64 `json:"quantity"`
}

// IssueInput is one issue-commission request.
type IssueInput struct {
	ClientKey  string
	Name       string
	Force      bool
	Metadata   datatypes.JSON
	Provisions []ProvisionInput
}

// Issue atomically takes every provision's hold and persists the pending
// commission. Either all provisions prepare and the commission, its
// provisions, and the holding mutations land durably, or the first failure
// rolls the whole transaction back and no holding is left mutated. Capacity
// is consumed here, at issue time, not at resolution.
func (s *Service) Issue(ctx context.Context, in IssueInput) (int64, error) {
	seen := make(map[models.HoldingKey]bool, len(in.Provisions))
	keys := make([]models.HoldingKey, 0, len(in.Provisions))
	for _, p := range in.Provisions {
		if seen[p.HoldingKey] {
			return 0, &quota.DuplicateError{Provision: p.HoldingKey}
		}
		seen[p.HoldingKey] = true
		keys = append(keys, p.HoldingKey)
	}

	var serial int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := holdings.GetForUpdate(tx, keys)
		if err != nil {
			return err
		}
		for _, p := range in.Provisions {
			if _, ok := locked[p.HoldingKey]; !ok {
				return &quota.NoHoldingError{Provision: p.HoldingKey}
			}
		}

		// Prepare in caller order. Holdings are only mutated in memory here;
		// returning an error rolls the transaction back, so a failed batch
		// never leaves a partial prepare behind.
		touched := make([]*models.Holding, 0, len(in.Provisions))
		for _, p := range in.Provisions {
			h := locked[p.HoldingKey]
			op := quota.NewOp(p.HoldingKey, p.Quantity)
			if err := op.Prepare(h, in.Force); err != nil {
				return err
			}
			touched = append(touched, h)
		}
		if err := holdings.SaveAll(tx, touched); err != nil {
			return err
		}

		comm := models.Commission{
			ClientKey: in.ClientKey,
			Name:      in.Name,
			IssueTime: time.Now().UTC(),
			Metadata:  in.Metadata,
		}
		if err := tx.Create(&comm).Error; err != nil {
			return err
		}
		for _, p := range in.Provisions {
			prov := models.Provision{
				Serial:   comm.Serial,
				Holder:   p.Holder,
				Source:   p.Source,
				Resource: p.Resource,
				Quantity: p.Quantity,
			}
			if err := tx.Create(&prov).Error; err != nil {
				return err
			}
		}
		serial = comm.Serial
		return nil
	})
	return serial, err
}

// View is the read-only snapshot of one pending commission.
type View struct {
	Serial     int64            `json:"serial"`
	Name       string           `json:"name"`
	IssueTime  time.Time        `json:"issue_time"`
	Metadata   datatypes.JSON   `json:"metadata,omitempty"`
	Provisions []ProvisionInput `json:"provisions"`
}

// Get returns the pending commission with the given serial, scoped to the
// caller's clientkey.
func (s *Service) Get(ctx context.Context, clientkey string, serial int64) (*View, error) {
	var comm models.Commission
	err := s.DB.WithContext(ctx).
		Where("clientkey = ? AND serial = ?", clientkey, serial).
		First(&comm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &quota.NoCommissionError{Serial: serial}
		}
		return nil, err
	}

	var provs []models.Provision
	if err := s.DB.WithContext(ctx).
		Where("serial = ?", serial).
		Order("holder, source, resource").
		Find(&provs).Error; err != nil {
		return nil, err
	}

	view := &View{
		Serial:     comm.Serial,
		Name:       comm.Name,
		IssueTime:  comm.IssueTime,
		Metadata:   comm.Metadata,
		Provisions: make([]ProvisionInput, len(provs)),
	}
	for i, p := range provs {
		view.Provisions[i] = ProvisionInput{HoldingKey: p.Key(), Quantity: p.Quantity}
	}
	return view, nil
}

// GetPending returns the serials of the caller's pending commissions,
// oldest first.
func (s *Service) GetPending(ctx context.Context, clientkey string) ([]int64, error) {
	serials := []int64{}
	err := s.DB.WithContext(ctx).
		Model(&models.Commission{}).
		Where("clientkey = ?", clientkey).
		Order("serial").
		Pluck("serial", &serials).Error
	return serials, err
}

// Resolution partitions the serials of one resolve call.
type Resolution struct {
	Accepted    []int64 `json:"accepted"`
	Rejected    []int64 `json:"rejected"`
	NotFound    []int64 `json:"not_found"`
	Conflicting []int64 `json:"conflicting"`
}

// Resolve accepts and rejects pending commissions in one batch. Serials in
// both sets are conflicting and left pending untouched; unknown serials are
// reported not_found and ignored. For each resolved commission every
// provision is finalized (accept) or undone (reject) on its locked holding,
// one audit row is appended per provision, and the commission and provision
// rows are deleted. A commission whose holding vanished since issue is left
// pending and surfaced as CorruptedError without blocking the rest of the
// batch.
func (s *Service) Resolve(ctx context.Context, clientkey string, acceptSet, rejectSet []int64, reason string) (Resolution, error) {
	res := Resolution{
		Accepted:    []int64{},
		Rejected:    []int64{},
		NotFound:    []int64{},
		Conflicting: []int64{},
	}

	acceptBy := serialSet(acceptSet)
	rejectBy := serialSet(rejectSet)
	for serial := range acceptBy {
		if rejectBy[serial] {
			res.Conflicting = append(res.Conflicting, serial)
			delete(acceptBy, serial)
			delete(rejectBy, serial)
		}
	}
	sortSerials(res.Conflicting)

	wanted := make([]int64, 0, len(acceptBy)+len(rejectBy))
	for serial := range acceptBy {
		wanted = append(wanted, serial)
	}
	for serial := range rejectBy {
		wanted = append(wanted, serial)
	}
	sortSerials(wanted)
	if len(wanted) == 0 {
		return res, nil
	}

	var corrupt error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comms []models.Commission
		if err := database.ForUpdate(tx).
			Where("clientkey = ? AND serial IN ?", clientkey, wanted).
			Order("serial").
			Find(&comms).Error; err != nil {
			return err
		}
		found := make(map[int64]bool, len(comms))
		for _, comm := range comms {
			found[comm.Serial] = true
		}
		for _, serial := range wanted {
			if !found[serial] {
				res.NotFound = append(res.NotFound, serial)
			}
		}

		serials := make([]int64, len(comms))
		for i, comm := range comms {
			serials[i] = comm.Serial
		}
		var provs []models.Provision
		if len(serials) > 0 {
			if err := database.ForUpdate(tx).
				Where("serial IN ?", serials).
				Order("serial, holder, source, resource").
				Find(&provs).Error; err != nil {
				return err
			}
		}
		bySerial := make(map[int64][]models.Provision)
		keys := make([]models.HoldingKey, 0, len(provs))
		for _, p := range provs {
			bySerial[p.Serial] = append(bySerial[p.Serial], p)
			keys = append(keys, p.Key())
		}

		// One deduplicated, key-sorted lock pass over every holding the
		// whole batch touches.
		locked, err := holdings.GetForUpdate(tx, keys)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		touched := make(map[models.HoldingKey]*models.Holding)
		for _, comm := range comms {
			accepted := acceptBy[comm.Serial]
			ps := bySerial[comm.Serial]

			// Corruption check before mutating anything for this serial, so
			// a corrupted commission stays pending and untouched.
			vanished := false
			for _, p := range ps {
				if _, ok := locked[p.Key()]; !ok {
					corrupt = &quota.CorruptedError{Serial: comm.Serial, Provision: p.Key()}
					log.Error().
						Int64("serial", comm.Serial).
						Str("clientkey", clientkey).
						Str("holding", p.Key().String()).
						Msg("Commission resolution found a vanished holding")
					vanished = true
					break
				}
			}
			if vanished {
				continue
			}

			logs := make([]models.ProvisionLog, 0, len(ps))
			for _, p := range ps {
				h := locked[p.Key()]
				op := quota.NewOp(p.Key(), p.Quantity)
				if accepted {
					op.Finalize(h)
				} else {
					op.Undo(h)
				}
				touched[p.Key()] = h
				logs = append(logs, models.ProvisionLog{
					Serial:      comm.Serial,
					Name:        comm.Name,
					Holder:      p.Holder,
					Source:      p.Source,
					Resource:    p.Resource,
					Limit:       h.Limit,
					UsageMin:    h.UsageMin,
					UsageMax:    h.UsageMax,
					Quantity:    p.Quantity,
					IssueTime:   comm.IssueTime,
					ResolveTime: now,
					Reason:      audit.ResolutionReason(accepted, reason),
				})
			}
			if err := audit.Append(tx, logs); err != nil {
				return err
			}
			if err := tx.Where("serial = ?", comm.Serial).Delete(&models.Provision{}).Error; err != nil {
				return err
			}
			if err := tx.Where("serial = ?", comm.Serial).Delete(&models.Commission{}).Error; err != nil {
				return err
			}
			if accepted {
				res.Accepted = append(res.Accepted, comm.Serial)
			} else {
				res.Rejected = append(res.Rejected, comm.Serial)
			}
		}

		hs := make([]*models.Holding, 0, len(touched))
		for _, h := range touched {
			hs = append(hs, h)
		}
		sort.Slice(hs, func(i, j int) bool { return hs[i].Key().Less(hs[j].Key()) })
		return holdings.SaveAll(tx, hs)
	})
	if err != nil {
		return Resolution{}, err
	}
	return res, corrupt
}

// ResolveOne resolves a single serial. It reports true iff the serial ended
// up accepted or rejected as requested, false when the commission is not
// found (including already-resolved); it never errors for "already
// resolved".
func (s *Service) ResolveOne(ctx context.Context, clientkey string, serial int64, accept bool) (bool, error) {
	var acceptSet, rejectSet []int64
	if accept {
		acceptSet = []int64{serial}
	} else {
		rejectSet = []int64{serial}
	}
	res, err := s.Resolve(ctx, clientkey, acceptSet, rejectSet, "")
	if err != nil {
		return false, err
	}
	if accept {
		return containsSerial(res.Accepted, serial), nil
	}
	return containsSerial(res.Rejected, serial), nil
}

func serialSet(serials []int64) map[int64]bool {
	set := make(map[int64]bool, len(serials))
	for _, serial := range serials {
		set[serial] = true
	}
	return set
}

func sortSerials(serials []int64) {
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
}

func containsSerial(serials []int64, serial int64) bool {
	for _, s := range serials {
		if s == serial {
			return true
		}
	}
	return false
}
