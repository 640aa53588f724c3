package core

import (
	"fmt"
	"math"
	"time"

	"oystercult/pkg/domain"
)

// TableView is the derived read model for one growing table. It is computed
// fresh on every read and never persisted. Display percentages are clamped
// for rendering; the unclamped values drive stage derivation and alerts.
type TableView struct {
	Table GrowingTable `json:"table"`
	// Stage is the effective lifecycle stage: the stored stage promoted to
	// ready-or-overdue when the lot reached its target calibre or overran
	// its planned harvest date.
	Stage                      LotStage `json:"stage"`
	OccupancyPercent           int      `json:"occupancy_percent"`
	CalibreProgressPercent     float64  `json:"calibre_progress_percent"`
	CalibreProgressRatio       float64  `json:"calibre_progress_ratio"`
	TimeProgressPercent        float64  `json:"time_progress_percent"`
	TimeProgressDisplayPercent float64  `json:"time_progress_display_percent"`
	MortalityBand              Band     `json:"mortality_band"`
	Alerts                     []Alert  `json:"alerts"`
}

// OccupancyPercent returns the table fill level as a rounded percentage.
// A non-positive capacity on a stored record is corruption, not operator input.
func OccupancyPercent(t GrowingTable) (int, error) {
	if t.CapacityUnits <= 0 {
		return 0, domain.InvariantViolationError{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Detail:   fmt.Sprintf("capacity_units %d must be positive", t.CapacityUnits),
		}
	}
	return int(math.Round(float64(t.FilledUnits) / float64(t.CapacityUnits) * 100)), nil
}

// TableCalibreProgress returns the lot's growth progress as the ratio of the
// current calibre's scale index to the target's, in percent and unclamped.
// Values above 100 mean the lot outgrew its target. A target at the scale's
// first step has no growth distance to measure and always reads 0.
func TableCalibreProgress(t GrowingTable, scale domain.Scale) (float64, error) {
	if !t.HasActiveLot() {
		return 0, domain.NoActiveLotError{TableID: t.ID}
	}
	current, err := scale.IndexOf(t.CurrentCalibre)
	if err != nil {
		return 0, err
	}
	target, err := scale.IndexOf(t.TargetCalibre)
	if err != nil {
		return 0, err
	}
	if target == 0 {
		return 0, nil
	}
	return float64(current) / float64(target) * 100, nil
}

// TableTimeProgress returns elapsed time over the planned growing window as
// an unclamped percentage. Above 100 the lot is past its planned harvest date.
func TableTimeProgress(t GrowingTable, now time.Time) (float64, error) {
	if !t.HasActiveLot() {
		return 0, domain.NoActiveLotError{TableID: t.ID}
	}
	if t.PlannedHarvestDate == nil {
		return 0, domain.InvariantViolationError{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Detail:   "active lot without planned harvest date",
		}
	}
	window := t.PlannedHarvestDate.Sub(*t.StartDate)
	if window <= 0 {
		return 0, domain.InvariantViolationError{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Detail:   fmt.Sprintf("planned harvest date %s not after start date %s",
				t.PlannedHarvestDate.Format(time.RFC3339), t.StartDate.Format(time.RFC3339)),
		}
	}
	return float64(now.Sub(*t.StartDate)) / float64(window) * 100, nil
}

// ComputeTableView derives the full read model for a table at the given
// instant. Each alert is evaluated independently against its own metric.
func ComputeTableView(t GrowingTable, scale domain.Scale, bands domain.ThresholdBands, now time.Time) (TableView, error) {
	occupancy, err := OccupancyPercent(t)
	if err != nil {
		return TableView{}, err
	}

	view := TableView{
		Table:            t,
		Stage:            t.Stage,
		OccupancyPercent: occupancy,
		MortalityBand:    BandNominal,
	}

	if t.FilledUnits > t.CapacityUnits {
		view.Alerts = append(view.Alerts, Alert{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Kind:     domain.AlertCapacityExceeded,
			Band:     BandCritical,
			Message:  fmt.Sprintf("table holds %d units over a capacity of %d", t.FilledUnits, t.CapacityUnits),
		})
	}

	if !t.HasActiveLot() {
		return view, nil
	}

	calibreRatio, err := TableCalibreProgress(t, scale)
	if err != nil {
		return TableView{}, err
	}
	timeProgress, err := TableTimeProgress(t, now)
	if err != nil {
		return TableView{}, err
	}

	view.CalibreProgressRatio = calibreRatio
	view.CalibreProgressPercent = clampPercent(calibreRatio)
	view.TimeProgressPercent = timeProgress
	view.TimeProgressDisplayPercent = clampPercent(timeProgress)
	view.Stage = effectiveStage(t, calibreRatio, timeProgress)

	mortalityBand, mortalityReason := bands.Band(domain.MetricMortalityPercent, t.MortalityRatePercent)
	view.MortalityBand = mortalityBand
	if mortalityBand != BandNominal {
		view.Alerts = append(view.Alerts, Alert{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Kind:     domain.AlertMortalityHigh,
			Band:     mortalityBand,
			Message:  mortalityReason,
		})
	}

	timeBand, timeReason := bands.Band(domain.MetricTimeProgressPercent, timeProgress)
	if timeProgress > 100 {
		view.Alerts = append(view.Alerts, Alert{
			Entity:   EntityGrowingTable,
			EntityID: t.ID,
			Kind:     domain.AlertTimeOverdue,
			Band:     timeBand,
			Message:  timeReason,
		})
		if t.CurrentCalibre != t.TargetCalibre {
			view.Alerts = append(view.Alerts, Alert{
				Entity:   EntityGrowingTable,
				EntityID: t.ID,
				Kind:     domain.AlertCalibreOverdue,
				Band:     timeBand,
				Message: fmt.Sprintf("lot at calibre %s has not reached target %s past its planned harvest date",
					t.CurrentCalibre, t.TargetCalibre),
			})
		}
	}

	return view, nil
}

// effectiveStage promotes a stored seeded or growing stage to ready-or-overdue
// when the lot reached its target calibre or ran past its planned window. The
// stored stage only ever changes through explicit operator commands.
func effectiveStage(t GrowingTable, calibreRatio, timeProgress float64) LotStage {
	switch t.Stage {
	case StageSeeded, StageGrowing:
		if calibreRatio >= 100 || timeProgress > 100 {
			return StageReadyOrOverdue
		}
	}
	return t.Stage
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
