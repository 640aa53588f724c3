package core

import (
	"context"
	"fmt"

	"oystercult/pkg/domain"
)

// lotTransitions enumerates the legal stored-stage transitions per command
// semantics: seed from empty, resample advances, harvest resets to empty, and
// a resample may move a ready lot back to growing when the sample regressed.
var lotTransitions = map[LotStage][]LotStage{
	StageEmpty:          {StageEmpty, StageSeeded},
	StageSeeded:         {StageSeeded, StageGrowing, StageReadyOrOverdue, StageEmpty},
	StageGrowing:        {StageGrowing, StageReadyOrOverdue, StageEmpty},
	StageReadyOrOverdue: {StageReadyOrOverdue, StageGrowing, StageEmpty},
}

// LotLifecycleRule blocks table commits whose stored stage moved along an
// edge outside the lifecycle graph, and rejects stages it does not know.
type LotLifecycleRule struct{}

// Name implements the Rule interface.
func (LotLifecycleRule) Name() string { return "lot-lifecycle" }

// Evaluate checks every created or updated table in the change set.
func (LotLifecycleRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityGrowingTable || change.Action == ActionDelete {
			continue
		}
		after, ok := change.After.(GrowingTable)
		if !ok {
			continue
		}
		allowed, known := lotTransitions[after.Stage]
		if !known {
			result.Violations = append(result.Violations, Violation{
				Rule:     "lot-lifecycle",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("unknown lot stage %q", after.Stage),
				Entity:   EntityGrowingTable,
				EntityID: after.ID,
			})
			continue
		}
		if change.Action == ActionCreate {
			if after.Stage != StageEmpty {
				result.Violations = append(result.Violations, Violation{
					Rule:     "lot-lifecycle",
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("new table must start empty, got stage %q", after.Stage),
					Entity:   EntityGrowingTable,
					EntityID: after.ID,
				})
			}
			continue
		}
		before, ok := change.Before.(GrowingTable)
		if !ok {
			continue
		}
		allowed, known = lotTransitions[before.Stage]
		if !known {
			// An unknown stored stage is pre-existing corruption; block any
			// further movement until it is repaired.
			result.Violations = append(result.Violations, Violation{
				Rule:     "lot-lifecycle",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("table stored with unknown stage %q", before.Stage),
				Entity:   EntityGrowingTable,
				EntityID: after.ID,
			})
			continue
		}
		if !containsStage(allowed, after.Stage) {
			result.Violations = append(result.Violations, Violation{
				Rule:     "lot-lifecycle",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("illegal stage transition %s -> %s", before.Stage, after.Stage),
				Entity:   EntityGrowingTable,
				EntityID: after.ID,
			})
		}
	}
	return result, nil
}

func containsStage(stages []LotStage, stage LotStage) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}
