package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"oystercult/pkg/domain"
)

func timePtr(t time.Time) *time.Time { return &t }

func testTable(now time.Time, startedDaysAgo, windowDays int) GrowingTable {
	start := now.AddDate(0, 0, -startedDaysAgo)
	planned := start.AddDate(0, 0, windowDays)
	return GrowingTable{
		Base:               Base{ID: "tbl-1"},
		Name:               "A1",
		Zone:               "north",
		CapacityUnits:      10,
		FilledUnits:        7,
		Stage:              StageGrowing,
		CurrentCalibre:     "N°3",
		TargetCalibre:      "N°3",
		StartDate:          timePtr(start),
		PlannedHarvestDate: timePtr(planned),
	}
}

func TestComputeTableViewOnTrackLot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	table := testTable(now, 50, 100)

	view, err := ComputeTableView(table, domain.DefaultOysterScale(), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if view.OccupancyPercent != 70 {
		t.Fatalf("expected occupancy 70, got %d", view.OccupancyPercent)
	}
	if view.CalibreProgressRatio != 100 || view.CalibreProgressPercent != 100 {
		t.Fatalf("expected calibre progress 100, got ratio=%.1f pct=%.1f",
			view.CalibreProgressRatio, view.CalibreProgressPercent)
	}
	if math.Abs(view.TimeProgressPercent-50) > 0.01 {
		t.Fatalf("expected time progress 50, got %.2f", view.TimeProgressPercent)
	}
	// Target calibre reached: effective stage promotes without touching the
	// stored stage.
	if view.Stage != StageReadyOrOverdue {
		t.Fatalf("expected effective stage ready_or_overdue, got %s", view.Stage)
	}
	if view.Table.Stage != StageGrowing {
		t.Fatalf("stored stage must stay growing, got %s", view.Table.Stage)
	}
	if len(view.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", view.Alerts)
	}
	if view.MortalityBand != BandNominal {
		t.Fatalf("expected nominal mortality band, got %s", view.MortalityBand)
	}
}

func TestComputeTableViewOverdueLot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	table := testTable(now, 105, 100)
	table.TargetCalibre = "N°2"

	view, err := ComputeTableView(table, domain.DefaultOysterScale(), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if math.Abs(view.TimeProgressPercent-105) > 0.01 {
		t.Fatalf("expected time progress 105, got %.2f", view.TimeProgressPercent)
	}
	if view.TimeProgressDisplayPercent != 100 {
		t.Fatalf("expected display progress clamped to 100, got %.2f", view.TimeProgressDisplayPercent)
	}
	if view.Stage != StageReadyOrOverdue {
		t.Fatalf("expected effective stage ready_or_overdue, got %s", view.Stage)
	}

	var timeOverdue, calibreOverdue bool
	for _, alert := range view.Alerts {
		switch alert.Kind {
		case domain.AlertTimeOverdue:
			timeOverdue = true
			if alert.Band != BandWarning {
				t.Fatalf("expected warning band at 105%%, got %s", alert.Band)
			}
		case domain.AlertCalibreOverdue:
			calibreOverdue = true
		}
	}
	if !timeOverdue || !calibreOverdue {
		t.Fatalf("expected time and calibre overdue alerts, got %+v", view.Alerts)
	}
}

func TestComputeTableViewAlertsAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	table := testTable(now, 115, 100)
	table.TargetCalibre = "N°2"
	table.MortalityRatePercent = 25

	view, err := ComputeTableView(table, domain.DefaultOysterScale(), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	kinds := map[AlertKind]Band{}
	for _, alert := range view.Alerts {
		kinds[alert.Kind] = alert.Band
	}
	if kinds[domain.AlertMortalityHigh] != BandCritical {
		t.Fatalf("expected critical mortality alert, got %+v", view.Alerts)
	}
	if kinds[domain.AlertTimeOverdue] != BandCritical {
		t.Fatalf("expected critical time overdue alert at 115%%, got %+v", view.Alerts)
	}
	if _, ok := kinds[domain.AlertCalibreOverdue]; !ok {
		t.Fatalf("expected calibre overdue alert, got %+v", view.Alerts)
	}
}

func TestComputeTableViewEmptyTable(t *testing.T) {
	now := time.Now().UTC()
	table := GrowingTable{Base: Base{ID: "tbl-2"}, Name: "B1", CapacityUnits: 20, Stage: StageEmpty}

	view, err := ComputeTableView(table, domain.DefaultOysterScale(), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if view.Stage != StageEmpty || view.OccupancyPercent != 0 || len(view.Alerts) != 0 {
		t.Fatalf("unexpected empty-table view: %+v", view)
	}
}

func TestTableProgressHelpersRequireActiveLot(t *testing.T) {
	table := GrowingTable{Base: Base{ID: "tbl-3"}, CapacityUnits: 5, Stage: StageEmpty}

	var noLot domain.NoActiveLotError
	if _, err := TableCalibreProgress(table, domain.DefaultOysterScale()); !errors.As(err, &noLot) {
		t.Fatalf("expected NoActiveLotError, got %v", err)
	}
	if _, err := TableTimeProgress(table, time.Now().UTC()); !errors.As(err, &noLot) {
		t.Fatalf("expected NoActiveLotError, got %v", err)
	}
}

func TestTableCalibreProgressIndexRatio(t *testing.T) {
	now := time.Now().UTC()
	scale := domain.DefaultOysterScale()

	cases := []struct {
		name    string
		current string
		target  string
		want    float64
	}{
		{"early lot", "T8", "N°3", 100.0 / 6},
		{"halfway", "N°5", "N°3", 400.0 / 6},
		{"on target", "N°3", "N°3", 100},
		{"outgrown target", "N°2", "N°3", 700.0 / 6},
		{"target at first step", "T6", "T6", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := testTable(now, 10, 100)
			table.CurrentCalibre = tc.current
			table.TargetCalibre = tc.target
			got, err := TableCalibreProgress(table, scale)
			if err != nil {
				t.Fatalf("calibre progress: %v", err)
			}
			if math.Abs(got-tc.want) > 0.0001 {
				t.Fatalf("expected %.4f for %s→%s, got %.4f", tc.want, tc.current, tc.target, got)
			}
		})
	}
}

func TestTableCalibreProgressMonotonicAlongScale(t *testing.T) {
	now := time.Now().UTC()
	scale := domain.DefaultOysterScale()

	for _, target := range scale.Steps()[1:] {
		prev := -1.0
		for _, step := range scale.Steps() {
			table := testTable(now, 10, 100)
			table.CurrentCalibre = step.Code
			table.TargetCalibre = target.Code
			got, err := TableCalibreProgress(table, scale)
			if err != nil {
				t.Fatalf("calibre progress for %s→%s: %v", step.Code, target.Code, err)
			}
			if got < prev {
				t.Fatalf("progress decreased advancing to %s with target %s: %.4f < %.4f",
					step.Code, target.Code, got, prev)
			}
			prev = got
		}
	}
}

func TestTableCalibreProgressUnknownCalibre(t *testing.T) {
	now := time.Now().UTC()
	table := testTable(now, 10, 100)
	table.CurrentCalibre = "XXL"

	var unknown domain.UnknownCalibreError
	if _, err := TableCalibreProgress(table, domain.DefaultOysterScale()); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCalibreError, got %v", err)
	}
}

func TestOccupancyPercentInvariant(t *testing.T) {
	var violation domain.InvariantViolationError
	if _, err := OccupancyPercent(GrowingTable{Base: Base{ID: "bad"}, CapacityUnits: 0}); !errors.As(err, &violation) {
		t.Fatalf("expected InvariantViolationError for zero capacity, got %v", err)
	}

	pct, err := OccupancyPercent(GrowingTable{CapacityUnits: 3, FilledUnits: 2})
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if pct != 67 {
		t.Fatalf("expected rounded occupancy 67, got %d", pct)
	}
}

func TestComputeTableViewOverfilledTable(t *testing.T) {
	now := time.Now().UTC()
	table := GrowingTable{Base: Base{ID: "tbl-4"}, CapacityUnits: 5, FilledUnits: 7, Stage: StageEmpty}

	view, err := ComputeTableView(table, domain.DefaultOysterScale(), domain.DefaultThresholdBands(), now)
	if err != nil {
		t.Fatalf("compute view: %v", err)
	}
	if len(view.Alerts) != 1 || view.Alerts[0].Kind != domain.AlertCapacityExceeded || view.Alerts[0].Band != BandCritical {
		t.Fatalf("expected critical capacity alert, got %+v", view.Alerts)
	}
}
