package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"oystercult/pkg/domain"
)

// stubConn is an in-memory database/sql driver that captures the snapshot
// upserts issued by the store and replays them on load.
type stubConn struct {
	mu       sync.Mutex
	execs    []string
	buckets  map[string][]byte
	failPing bool
	failExec bool
}

type stubDriver struct {
	conn *stubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func newStubDB() (*sql.DB, *stubConn) {
	conn := &stubConn{buckets: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *stubConn) Ping(_ context.Context) error {
	if c.failPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	return stubTx{}, nil
}

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected bucket and payload args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket arg must be string, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload arg must be bytes, got %T", args[1].Value)
		}
		c.buckets[bucket] = append([]byte(nil), payload...)
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(strings.ToUpper(query), "FROM STATE") {
		return nil, fmt.Errorf("unexpected query %q", query)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := &stubRows{}
	for bucket, payload := range c.buckets {
		rows.rows = append(rows.rows, [2]driver.Value{bucket, append([]byte(nil), payload...)})
	}
	return rows, nil
}

type stubRows struct {
	rows [][2]driver.Value
	pos  int
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }

func (r *stubRows) Close() error { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	dest[0] = r.rows[r.pos][0]
	dest[1] = r.rows[r.pos][1]
	r.pos++
	return nil
}

func (c *stubConn) sawDDL() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, stmt := range c.execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			return true
		}
	}
	return false
}

func TestNewStoreAppliesDDLAndLoadsSnapshot(t *testing.T) {
	db, conn := newStubDB()

	payload, err := json.Marshal(map[string]domain.GrowingTable{
		"t-1": {Base: domain.Base{ID: "t-1"}, Name: "A1", CapacityUnits: 10},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	conn.buckets["tables"] = payload

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	table, ok := store.GetTable("t-1")
	if !ok || table.Name != "A1" {
		t.Fatalf("expected table hydrated from snapshot, got %+v ok=%v", table, ok)
	}
	if !conn.sawDDL() {
		t.Fatalf("expected state table DDL, got execs: %v", conn.execs)
	}
}

func TestRunInTransactionPersistsSnapshot(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var tableID string
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		table, err := tx.CreateTable(domain.GrowingTable{Name: "B2", CapacityUnits: 8})
		tableID = table.ID
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	conn.mu.Lock()
	payload := conn.buckets["tables"]
	conn.mu.Unlock()
	if !strings.Contains(string(payload), "B2") {
		t.Fatalf("expected table snapshot on the wire, got %s", payload)
	}

	// A fresh store over the same connection hydrates the persisted state.
	reopened, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := reopened.GetTable(tableID); !ok {
		t.Fatalf("expected hydrated table %s", tableID)
	}
}

func TestNewStoreOpenFailure(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, fmt.Errorf("dial fail")
	})
	defer restore()

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected open error to propagate")
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := newStubDB()
	conn.failPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestPersistFailureSurfacesAfterCommit(t *testing.T) {
	db, conn := newStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.failExec = true

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateTable(domain.GrowingTable{Name: "C3", CapacityUnits: 4})
		return err
	}); err == nil {
		t.Fatalf("expected persist failure to surface")
	}
}
