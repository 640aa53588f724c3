package core

import (
	"context"
	"testing"

	"oystercult/pkg/domain"
)

func TestPoolCapacityRuleBlocksOverfill(t *testing.T) {
	rule := PoolCapacityRule{}
	pool := PurificationPool{
		Base:       Base{ID: "pool-1"},
		CapacityKg: 100,
		Batches:    []PoolBatch{{ID: "b", QuantityKg: 150}},
	}
	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityPurificationPool, Action: ActionUpdate, After: pool},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation, got %+v", res)
	}
}

func TestPoolCapacityRuleAllowsFullPool(t *testing.T) {
	rule := PoolCapacityRule{}
	pool := PurificationPool{
		Base:       Base{ID: "pool-1"},
		CapacityKg: 100,
		Batches:    []PoolBatch{{ID: "b", QuantityKg: 100}},
	}
	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityPurificationPool, Action: ActionCreate, After: pool},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected no violations for exactly full pool, got %+v", res.Violations)
	}
}

func TestLotLifecycleRuleBlocksIllegalTransition(t *testing.T) {
	rule := LotLifecycleRule{}
	before := GrowingTable{Base: Base{ID: "tbl"}, Stage: StageEmpty}
	after := before
	after.Stage = StageReadyOrOverdue

	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityGrowingTable, Action: ActionUpdate, Before: before, After: after},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation for empty -> ready_or_overdue")
	}
}

func TestLotLifecycleRuleAllowsRegressionToGrowing(t *testing.T) {
	rule := LotLifecycleRule{}
	before := GrowingTable{Base: Base{ID: "tbl"}, Stage: StageReadyOrOverdue}
	after := before
	after.Stage = StageGrowing

	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityGrowingTable, Action: ActionUpdate, Before: before, After: after},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", res.Violations)
	}
}

func TestLotLifecycleRuleBlocksNonEmptyCreate(t *testing.T) {
	rule := LotLifecycleRule{}
	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityGrowingTable, Action: ActionCreate, After: GrowingTable{Base: Base{ID: "tbl"}, Stage: StageGrowing}},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation for non-empty create")
	}
}

func TestLotLifecycleRuleRejectsUnknownStage(t *testing.T) {
	rule := LotLifecycleRule{}
	res, err := rule.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityGrowingTable, Action: ActionCreate, After: GrowingTable{Base: Base{ID: "tbl"}, Stage: LotStage("fermenting")}},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation for unknown stage")
	}
}

func TestDefaultRulesEngineRegistersInvariantRules(t *testing.T) {
	engine := NewDefaultRulesEngine()
	pool := PurificationPool{Base: Base{ID: "pool"}, CapacityKg: 10, Batches: []PoolBatch{{ID: "b", QuantityKg: 20}}}
	res, err := engine.Evaluate(context.Background(), nil, []Change{
		{Entity: EntityPurificationPool, Action: ActionUpdate, After: pool},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected default engine to block pool overfill")
	}
	if res.Violations[0].Rule != (PoolCapacityRule{}).Name() {
		t.Fatalf("unexpected rule name %q", res.Violations[0].Rule)
	}
}

var _ domain.Rule = PoolCapacityRule{}
var _ domain.Rule = LotLifecycleRule{}
