package core

import (
	"context"
	"sort"
	"time"

	"oystercult/pkg/domain"
)

// Overview aggregates the derived state of the whole site in one pass, with
// every active alert ranked worst first.
type Overview struct {
	Tables      []TableView     `json:"tables"`
	Pools       []PoolView      `json:"pools"`
	Harvests    []HarvestRecord `json:"harvests"`
	Alerts      []Alert         `json:"alerts"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Overview computes the site-wide read model at the current instant. All
// views share one snapshot and one timestamp so the result is internally
// consistent.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.nowFn()
	overview := Overview{GeneratedAt: now}
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		for _, table := range v.ListTables() {
			view, err := ComputeTableView(table, s.scale, s.bands, now)
			if err != nil {
				return err
			}
			overview.Tables = append(overview.Tables, view)
			overview.Alerts = append(overview.Alerts, view.Alerts...)
		}
		for _, pool := range v.ListPools() {
			view, err := ComputePoolView(pool, s.bands, now)
			if err != nil {
				return err
			}
			overview.Pools = append(overview.Pools, view)
			overview.Alerts = append(overview.Alerts, view.Alerts...)
		}
		overview.Harvests = v.ListHarvests()
		return nil
	})
	if err != nil {
		return Overview{}, err
	}
	rankAlerts(overview.Alerts)
	return overview, nil
}

// rankAlerts orders alerts worst band first, then deterministically by
// entity, id, and kind so repeated reads render identically.
func rankAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Band.Rank() != alerts[j].Band.Rank() {
			return alerts[i].Band.Rank() > alerts[j].Band.Rank()
		}
		if alerts[i].Entity != alerts[j].Entity {
			return alerts[i].Entity < alerts[j].Entity
		}
		if alerts[i].EntityID != alerts[j].EntityID {
			return alerts[i].EntityID < alerts[j].EntityID
		}
		return alerts[i].Kind < alerts[j].Kind
	})
}
