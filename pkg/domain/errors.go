package domain

import "fmt"

// Validation errors are typed, recoverable results representing normal
// operator mistakes; the host is expected to surface them to a person.

// UnknownCalibreError reports a calibre code outside the configured scale.
type UnknownCalibreError struct {
	Code string
}

func (e UnknownCalibreError) Error() string {
	return fmt.Sprintf("unknown calibre %q", e.Code)
}

// NoActiveLotError reports a time or calibre computation requested on a
// table without an active lot.
type NoActiveLotError struct {
	TableID string
}

func (e NoActiveLotError) Error() string {
	return fmt.Sprintf("table %s has no active lot", e.TableID)
}

// TableNotEmptyError reports a seed attempt on a table that already carries a lot.
type TableNotEmptyError struct {
	TableID string
	Stage   LotStage
}

func (e TableNotEmptyError) Error() string {
	return fmt.Sprintf("table %s is not empty (stage %s)", e.TableID, e.Stage)
}

// TableNotReadyError reports an unforced harvest attempt before the lot
// reached ready-or-overdue.
type TableNotReadyError struct {
	TableID string
	Stage   LotStage
}

func (e TableNotReadyError) Error() string {
	return fmt.Sprintf("table %s is not ready for harvest (stage %s); early harvest requires force", e.TableID, e.Stage)
}

// CapacityExceededError rejects a batch entry that would overfill the pool.
type CapacityExceededError struct {
	PoolID      string
	CapacityKg  float64
	StockedKg   float64
	RequestedKg float64
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("pool %s capacity exceeded: %.1fkg stocked + %.1fkg requested > %.1fkg capacity",
		e.PoolID, e.StockedKg, e.RequestedKg, e.CapacityKg)
}

// UnknownBatchError reports an exit request for a batch absent from the pool.
type UnknownBatchError struct {
	PoolID  string
	BatchID string
}

func (e UnknownBatchError) Error() string {
	return fmt.Sprintf("batch %s not found in pool %s", e.BatchID, e.PoolID)
}

// ExitQuantityExceedsRemainingError rejects a partial exit larger than what
// remains of the batch.
type ExitQuantityExceedsRemainingError struct {
	PoolID      string
	BatchID     string
	RemainingKg float64
	RequestedKg float64
}

func (e ExitQuantityExceedsRemainingError) Error() string {
	return fmt.Sprintf("cannot exit %.1fkg from batch %s in pool %s: only %.1fkg remaining",
		e.RequestedKg, e.BatchID, e.PoolID, e.RemainingKg)
}

// InvariantViolationError reports a consistency error observed on a read of
// already-persisted data, implying upstream corruption. It is reported
// distinctly from validation errors and never clamped or hidden.
type InvariantViolationError struct {
	Entity   EntityType
	EntityID string
	Detail   string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated on %s %s: %s", e.Entity, e.EntityID, e.Detail)
}
