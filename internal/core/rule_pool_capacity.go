package core

import (
	"context"
	"fmt"

	"oystercult/pkg/domain"
)

// PoolCapacityRule blocks any commit that would leave a pool stocked beyond
// its capacity. The service rejects overfills up front with a typed error;
// this rule is the transaction-level backstop that holds regardless of which
// code path produced the mutation.
type PoolCapacityRule struct{}

// Name implements the Rule interface.
func (PoolCapacityRule) Name() string { return "pool-capacity" }

// Evaluate checks every created or updated pool in the change set.
func (PoolCapacityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityPurificationPool || change.Action == ActionDelete {
			continue
		}
		pool, ok := change.After.(PurificationPool)
		if !ok {
			continue
		}
		if pool.CapacityKg <= 0 {
			result.Violations = append(result.Violations, Violation{
				Rule:     "pool-capacity",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("pool capacity %.1fkg must be positive", pool.CapacityKg),
				Entity:   EntityPurificationPool,
				EntityID: pool.ID,
			})
			continue
		}
		if stocked := pool.StockedKg(); stocked > pool.CapacityKg {
			result.Violations = append(result.Violations, Violation{
				Rule:     "pool-capacity",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("stocked %.1fkg exceeds capacity %.1fkg", stocked, pool.CapacityKg),
				Entity:   EntityPurificationPool,
				EntityID: pool.ID,
			})
		}
	}
	return result, nil
}
