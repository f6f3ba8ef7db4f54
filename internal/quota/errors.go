package quota

import (
	"fmt"

	"quota-backend/internal/models"
)

// The engine's caller-visible failures form a closed set of typed errors so
// callers can match with errors.As instead of parsing messages. None of them
// is retried internally; CorruptedError is the only one that signals an
// internal invariant violation rather than caller misuse.

// NoHoldingError rejects a batch that references a (holder, source,
// resource) with no holding record.
type NoHoldingError struct {
	Provision models.HoldingKey
}

func (e *NoHoldingError) Error() string {
	return fmt.Sprintf("no holding for %s", e.Provision)
}

// NoCapacityError rejects a non-forced Import that would push the held
// ceiling past the limit.
type NoCapacityError struct {
	Provision models.HoldingKey
	Usage     int64
	Limit     int64
}

func (e *NoCapacityError) Error() string {
	return fmt.Sprintf("no capacity on %s: usage %d, limit %d", e.Provision, e.Usage, e.Limit)
}

// NoQuantityError rejects a Release of more than the committed floor.
type NoQuantityError struct {
	Provision models.HoldingKey
	Available int64
}

func (e *NoQuantityError) Error() string {
	return fmt.Sprintf("no quantity on %s: available %d", e.Provision, e.Available)
}

// DuplicateError rejects a batch in which the same holding key appears more
// than once. Duplicate quantities are never silently summed.
type DuplicateError struct {
	Provision models.HoldingKey
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate provision for %s", e.Provision)
}

// InvalidDataError rejects a malformed provision quantity (non-integer).
type InvalidDataError struct {
	Value string
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("invalid quantity %q: not an integer", e.Value)
}

// NoCommissionError is returned on lookup of an unknown serial, or of a
// serial belonging to a different clientkey.
type NoCommissionError struct {
	Serial int64
}

func (e *NoCommissionError) Error() string {
	return fmt.Sprintf("no commission with serial %d", e.Serial)
}

// CorruptedError means resolution found a provision whose holding vanished
// between issue and resolve. Unreachable under correct locking; treated as a
// severe anomaly, never retried.
type CorruptedError struct {
	Serial    int64
	Provision models.HoldingKey
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("commission %d corrupted: holding %s vanished", e.Serial, e.Provision)
}
