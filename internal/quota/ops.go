package quota

import "quota-backend/internal/models"

// Kind is the operation kind of a provision.
type Kind int

const (
	// Import increases held usage (a reservation).
	Import Kind = iota
	// Release decreases committed usage (a give-back).
	Release
)

func (k Kind) String() string {
	if k == Release {
		return "release"
	}
	return "import"
}

// Op is one provision's operation: a kind plus a non-negative magnitude,
// derived from the signed quantity of the provision. Its three transitions
// (Prepare, Finalize, Undo) are pure functions over an in-memory Holding;
// persistence and locking are the caller's problem.
type Op struct {
	Key      models.HoldingKey
	Kind     Kind
	Quantity int64
}

// NewOp builds the operation for a signed provision quantity: quantity >= 0
// is an Import of that amount, quantity < 0 a Release of its magnitude.
func NewOp(key models.HoldingKey, quantity int64) Op {
	if quantity < 0 {
		return Op{Key: key, Kind: Release, Quantity: -quantity}
	}
	return Op{Key: key, Kind: Import, Quantity: quantity}
}

// Delta returns the signed quantity the op was built from.
func (op Op) Delta() int64 {
	if op.Kind == Release {
		return -op.Quantity
	}
	return op.Quantity
}

// Prepare applies the optimistic half of the operation at issue time.
// Import consumes capacity against the held ceiling, Release consumes
// availability from the committed floor; both are immediately visible to
// subsequent callers once persisted. force suppresses only the Import
// capacity check and never applies to Release.
func (op Op) Prepare(h *models.Holding, force bool) error {
	switch op.Kind {
	case Import:
		if !force && h.UsageMax+op.Quantity > h.Limit {
			return &NoCapacityError{Provision: op.Key, Usage: h.UsageMax, Limit: h.Limit}
		}
		h.UsageMax += op.Quantity
	case Release:
		if h.UsageMin < op.Quantity {
			return &NoQuantityError{Provision: op.Key, Available: h.UsageMin}
		}
		h.UsageMin -= op.Quantity
	}
	return nil
}

// Finalize makes a prepared operation permanent on accept, reconciling the
// floor/ceiling to the now-committed value. It never re-checks capacity, so
// a forced over-commission stays visible (UsageMax > Limit) until a later
// Release resolves it.
func (op Op) Finalize(h *models.Holding) {
	switch op.Kind {
	case Import:
		h.UsageMin += op.Quantity
	case Release:
		h.UsageMax -= op.Quantity
	}
}

// Undo reverses a prepared operation on reject. It is the exact algebraic
// inverse of Prepare.
func (op Op) Undo(h *models.Holding) {
	switch op.Kind {
	case Import:
		h.UsageMax -= op.Quantity
	case Release:
		h.UsageMin += op.Quantity
	}
}
