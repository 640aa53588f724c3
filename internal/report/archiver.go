// Package report archives traceability documents to blob storage. Sanitary
// authorities expect harvest and purification records to be retrievable
// years after the fact, so reports are written once and never overwritten.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oystercult/internal/blob"
	"oystercult/internal/core"
	"oystercult/pkg/domain"
)

const contentTypeJSON = "application/json"

// Archiver writes traceability reports to a blob store.
type Archiver struct {
	store blob.Store
	nowFn func() time.Time
}

// Option customises archiver construction.
type Option func(*Archiver)

// WithClock injects a time source for report timestamps and keys.
func WithClock(fn func() time.Time) Option {
	return func(a *Archiver) {
		if fn != nil {
			a.nowFn = func() time.Time { return fn().UTC() }
		}
	}
}

// NewArchiver constructs an archiver over the given blob store.
func NewArchiver(store blob.Store, opts ...Option) *Archiver {
	a := &Archiver{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HarvestReport is the archived form of one harvest.
type HarvestReport struct {
	Record      domain.HarvestRecord `json:"record"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// ArchiveHarvest writes the harvest record as a JSON document keyed by
// harvest year and record id.
func (a *Archiver) ArchiveHarvest(ctx context.Context, record domain.HarvestRecord) (blob.Info, error) {
	if record.ID == "" {
		return blob.Info{}, fmt.Errorf("harvest record id required")
	}
	report := HarvestReport{Record: record, GeneratedAt: a.nowFn()}
	key := fmt.Sprintf("harvests/%04d/%s.json", record.HarvestedAt.UTC().Year(), record.ID)
	return a.put(ctx, key, report, map[string]string{
		"table_id": record.TableID,
		"calibre":  record.Calibre,
	})
}

// PoolReport is the archived form of one pool's derived state at an instant.
type PoolReport struct {
	View        core.PoolView `json:"view"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// ArchivePoolSnapshot writes the pool's current derived state as a JSON
// document keyed by pool id and capture time.
func (a *Archiver) ArchivePoolSnapshot(ctx context.Context, view core.PoolView) (blob.Info, error) {
	if view.Pool.ID == "" {
		return blob.Info{}, fmt.Errorf("pool id required")
	}
	now := a.nowFn()
	report := PoolReport{View: view, GeneratedAt: now}
	key := fmt.Sprintf("pools/%s/%s.json", view.Pool.ID, now.Format("20060102T150405Z"))
	return a.put(ctx, key, report, map[string]string{
		"pool_id": view.Pool.ID,
	})
}

// ListHarvestReports returns the archived harvest documents for a year.
func (a *Archiver) ListHarvestReports(ctx context.Context, year int) ([]blob.Info, error) {
	return a.store.List(ctx, fmt.Sprintf("harvests/%04d/", year))
}

// ListPoolReports returns the archived snapshots for a pool.
func (a *Archiver) ListPoolReports(ctx context.Context, poolID string) ([]blob.Info, error) {
	return a.store.List(ctx, fmt.Sprintf("pools/%s/", poolID))
}

// ReadHarvestReport loads and decodes one archived harvest document.
func (a *Archiver) ReadHarvestReport(ctx context.Context, key string) (HarvestReport, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return HarvestReport{}, err
	}
	defer func() { _ = rc.Close() }()
	var report HarvestReport
	if err := json.NewDecoder(rc).Decode(&report); err != nil {
		return HarvestReport{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return report, nil
}

func (a *Archiver) put(ctx context.Context, key string, v any, metadata map[string]string) (blob.Info, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return blob.Info{}, err
	}
	return a.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentTypeJSON,
		Metadata:    metadata,
	})
}
