package core

import (
	"time"

	"oystercult/pkg/domain"
)

// Clock abstracts the wall-clock time source so derived computations and
// stamped records are testable. All times are normalised to UTC.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface. A nil function
// falls back to the system clock.
type ClockFunc func() time.Time

// Now returns the function's time in UTC, or the current UTC time when nil.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// nowFuncProvider is implemented by stores that carry their own clock so
// transaction stamps and service stamps stay aligned.
type nowFuncProvider interface {
	NowFunc() func() time.Time
}

// rulesEngineProvider is implemented by stores exposing their rules engine.
type rulesEngineProvider interface {
	RulesEngine() *domain.RulesEngine
}

// selectNowFunc prefers the store's clock, then the configured Clock, then
// the system clock.
func selectNowFunc(store domain.PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(nowFuncProvider); ok {
		if fn := provider.NowFunc(); fn != nil {
			return func() time.Time { return fn().UTC() }
		}
	}
	if clock != nil {
		return clock.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// extractRulesEngine returns the store's rules engine when exposed.
func extractRulesEngine(store domain.PersistentStore) *domain.RulesEngine {
	if provider, ok := store.(rulesEngineProvider); ok {
		return provider.RulesEngine()
	}
	return nil
}
