package core

import "oystercult/pkg/domain"

// NewDefaultRulesEngine returns an engine with the standard invariant rules
// registered. Stores evaluate it on every transaction commit.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(PoolCapacityRule{})
	engine.Register(LotLifecycleRule{})
	return engine
}
