package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"oystercult/pkg/domain"
)

func testPool(now time.Time) PurificationPool {
	return PurificationPool{
		Base:                Base{ID: "pool-1"},
		Name:                "Bassin 1",
		CapacityKg:          1000,
		WaterQualityPercent: 98,
		OxygenPercent:       95,
		TemperatureC:        12,
		UVLampHours:         1200,
		Batches: []PoolBatch{
			{ID: "b-1", ProductName: "fines de claire", QuantityKg: 500, EntryTimestamp: now.Add(-10 * time.Hour), RequiredPurificationHours: 12},
			{ID: "b-2", ProductName: "spéciales", QuantityKg: 300, EntryTimestamp: now.Add(-2 * time.Hour), RequiredPurificationHours: 24},
		},
	}
}

func TestComputePoolViewOccupancyAndBatches(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	view, err := ComputePoolView(testPool(now), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if view.OccupancyPercent != 80 {
		t.Fatalf("expected occupancy 80, got %d", view.OccupancyPercent)
	}
	if len(view.Batches) != 2 {
		t.Fatalf("expected 2 batch views, got %d", len(view.Batches))
	}
	if view.Batches[0].State != BatchPurifying || math.Abs(view.Batches[0].RemainingHours-2) > 0.01 {
		t.Fatalf("unexpected first batch view: %+v", view.Batches[0])
	}
	if view.Batches[1].State != BatchPurifying || math.Abs(view.Batches[1].RemainingHours-22) > 0.01 {
		t.Fatalf("unexpected second batch view: %+v", view.Batches[1])
	}
	if len(view.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", view.Alerts)
	}
}

func TestBatchStateTransitions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	entered := PoolBatch{ID: "b", EntryTimestamp: now, RequiredPurificationHours: 24}
	if state, _, remaining := BatchStateAt(entered, now); state != BatchEntered || remaining != 24 {
		t.Fatalf("expected entered state with full hours remaining, got %s %.1f", state, remaining)
	}

	done := PoolBatch{ID: "b", EntryTimestamp: now.Add(-30 * time.Hour), RequiredPurificationHours: 24}
	state, elapsed, remaining := BatchStateAt(done, now)
	if state != BatchReadyForExit || remaining != 0 {
		t.Fatalf("expected ready_for_exit with zero remaining, got %s %.1f", state, remaining)
	}
	if math.Abs(elapsed-30) > 0.01 {
		t.Fatalf("expected elapsed 30h, got %.1f", elapsed)
	}

	boundary := PoolBatch{ID: "b", EntryTimestamp: now.Add(-24 * time.Hour), RequiredPurificationHours: 24}
	if state, _, _ := BatchStateAt(boundary, now); state != BatchReadyForExit {
		t.Fatalf("expected ready_for_exit exactly at required hours, got %s", state)
	}
}

func TestComputePoolViewUVMaintenanceAlert(t *testing.T) {
	now := time.Now().UTC()
	pool := testPool(now)
	pool.UVLampHours = 8200

	view, err := ComputePoolView(pool, domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if view.UVLampBand != BandCritical {
		t.Fatalf("expected critical uv band at 8200h, got %s", view.UVLampBand)
	}
	var found bool
	for _, alert := range view.Alerts {
		if alert.Kind == domain.AlertMaintenanceDue && alert.Band == BandCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected critical maintenance alert, got %+v", view.Alerts)
	}
}

func TestComputePoolViewConditionAlertsAreIndependent(t *testing.T) {
	now := time.Now().UTC()
	pool := testPool(now)
	pool.WaterQualityPercent = 88
	pool.OxygenPercent = 85
	pool.TemperatureC = 19

	view, err := ComputePoolView(pool, domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	kinds := map[AlertKind]Band{}
	for _, alert := range view.Alerts {
		kinds[alert.Kind] = alert.Band
	}
	if kinds[domain.AlertWaterQualityLow] != BandCritical {
		t.Fatalf("expected critical water quality alert, got %+v", view.Alerts)
	}
	if kinds[domain.AlertOxygenLow] != BandWarning {
		t.Fatalf("expected warning oxygen alert, got %+v", view.Alerts)
	}
	if kinds[domain.AlertTemperatureHigh] != BandCritical {
		t.Fatalf("expected critical temperature alert, got %+v", view.Alerts)
	}
}

func TestPoolOccupancyRatioInvariant(t *testing.T) {
	var violation domain.InvariantViolationError
	if _, err := PoolOccupancyRatio(PurificationPool{Base: Base{ID: "bad"}}); !errors.As(err, &violation) {
		t.Fatalf("expected InvariantViolationError for zero capacity, got %v", err)
	}
}

func TestComputePoolViewOverstockedDefensiveAlert(t *testing.T) {
	now := time.Now().UTC()
	pool := testPool(now)
	pool.CapacityKg = 700

	view, err := ComputePoolView(pool, domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	var found bool
	for _, alert := range view.Alerts {
		if alert.Kind == domain.AlertCapacityExceeded && alert.Band == BandCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected capacity exceeded alert, got %+v", view.Alerts)
	}
}
