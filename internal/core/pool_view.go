package core

import (
	"fmt"
	"math"
	"time"

	"oystercult/pkg/domain"
)

// BatchView is the derived read model for one batch inside a pool. The state
// is recomputed from the clock on every read.
type BatchView struct {
	Batch          PoolBatch  `json:"batch"`
	State          BatchState `json:"state"`
	ElapsedHours   float64    `json:"elapsed_hours"`
	RemainingHours float64    `json:"remaining_hours"`
}

// PoolView is the derived read model for one purification pool.
type PoolView struct {
	Pool             PurificationPool `json:"pool"`
	OccupancyPercent int              `json:"occupancy_percent"`
	OccupancyRatio   float64          `json:"occupancy_ratio"`
	Batches          []BatchView      `json:"batches"`
	WaterQualityBand Band             `json:"water_quality_band"`
	OxygenBand       Band             `json:"oxygen_band"`
	TemperatureBand  Band             `json:"temperature_band"`
	UVLampBand       Band             `json:"uv_lamp_band"`
	Alerts           []Alert          `json:"alerts"`
}

// PoolOccupancyRatio returns the stocked share of the pool capacity in
// percent, unclamped. Non-positive capacity on a stored record is corruption.
func PoolOccupancyRatio(p PurificationPool) (float64, error) {
	if p.CapacityKg <= 0 {
		return 0, domain.InvariantViolationError{
			Entity:   EntityPurificationPool,
			EntityID: p.ID,
			Detail:   fmt.Sprintf("capacity_kg %.1f must be positive", p.CapacityKg),
		}
	}
	return p.StockedKg() / p.CapacityKg * 100, nil
}

// BatchStateAt derives where the batch sits in its cycle at the given instant
// together with its elapsed and remaining hours. Remaining hours never go
// negative; once the required duration has passed the batch is ready to exit.
func BatchStateAt(b PoolBatch, now time.Time) (BatchState, float64, float64) {
	elapsed := now.Sub(b.EntryTimestamp).Hours()
	if elapsed <= 0 {
		return BatchEntered, 0, b.RequiredPurificationHours
	}
	remaining := b.RequiredPurificationHours - elapsed
	if remaining > 0 {
		return BatchPurifying, elapsed, remaining
	}
	return BatchReadyForExit, elapsed, 0
}

// ComputePoolView derives the full read model for a pool at the given
// instant. Water quality, oxygen, temperature, and UV lamp wear are banded
// independently; one bad reading never masks another.
func ComputePoolView(p PurificationPool, bands domain.ThresholdBands, now time.Time) (PoolView, error) {
	ratio, err := PoolOccupancyRatio(p)
	if err != nil {
		return PoolView{}, err
	}

	view := PoolView{
		Pool:             p,
		OccupancyRatio:   ratio,
		OccupancyPercent: int(math.Round(clampPercent(ratio))),
		Batches:          make([]BatchView, 0, len(p.Batches)),
	}

	for _, b := range p.Batches {
		state, elapsed, remaining := BatchStateAt(b, now)
		view.Batches = append(view.Batches, BatchView{
			Batch:          b,
			State:          state,
			ElapsedHours:   elapsed,
			RemainingHours: remaining,
		})
	}

	if stocked := p.StockedKg(); stocked > p.CapacityKg {
		view.Alerts = append(view.Alerts, Alert{
			Entity:   EntityPurificationPool,
			EntityID: p.ID,
			Kind:     domain.AlertCapacityExceeded,
			Band:     BandCritical,
			Message:  fmt.Sprintf("pool holds %.1fkg over a capacity of %.1fkg", stocked, p.CapacityKg),
		})
	}

	view.WaterQualityBand = view.bandAlert(&view.Alerts, bands, domain.MetricWaterQualityPercent, p.WaterQualityPercent, domain.AlertWaterQualityLow)
	view.OxygenBand = view.bandAlert(&view.Alerts, bands, domain.MetricOxygenPercent, p.OxygenPercent, domain.AlertOxygenLow)
	view.TemperatureBand = view.bandAlert(&view.Alerts, bands, domain.MetricTemperatureC, p.TemperatureC, domain.AlertTemperatureHigh)
	view.UVLampBand = view.bandAlert(&view.Alerts, bands, domain.MetricUVLampHours, p.UVLampHours, domain.AlertMaintenanceDue)

	return view, nil
}

// bandAlert bands one reading and appends an alert when it is off-nominal.
func (v PoolView) bandAlert(alerts *[]Alert, bands domain.ThresholdBands, kind MetricKind, value float64, alertKind AlertKind) Band {
	band, reason := bands.Band(kind, value)
	if band != BandNominal {
		*alerts = append(*alerts, Alert{
			Entity:   EntityPurificationPool,
			EntityID: v.Pool.ID,
			Kind:     alertKind,
			Band:     band,
			Message:  reason,
		})
	}
	return band
}
