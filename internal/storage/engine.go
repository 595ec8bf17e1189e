package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Engine implements DataAccess over a Backend.  Each table is stored
// as one JSON array under the table name; every mutation rewrites the
// whole array before returning so a later read never sees a partial
// write.  The mutex serialises operations within the process only.
type Engine struct {
	mu      sync.RWMutex
	backend Backend
}

// NewEngine returns an Engine bound to the given backend.
func NewEngine(b Backend) *Engine {
	if b == nil {
		panic("nil backend passed to NewEngine")
	}
	return &Engine{backend: b}
}

// Backend exposes the underlying key-value store.  The Proxy uses it
// to persist the audit log next to the tables.
func (e *Engine) Backend() Backend { return e.backend }

// Close releases the backend.
func (e *Engine) Close() error { return e.backend.Close() }

// Insert appends rec to the end of table.
func (e *Engine) Insert(ctx context.Context, table string, rec Record) error {
	if rec == nil {
		return errors.New("insert: nil record")
	}
	row, err := rec.clone()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.load(ctx, table)
	if err != nil {
		return err
	}
	rows = append(rows, row)
	return e.store(ctx, table, rows)
}

// FindOne returns the first record in insertion order that matches c.
// Later matches are ignored.
func (e *Engine) FindOne(ctx context.Context, table string, c Criteria) (Record, bool, error) {
	nc, err := normalize(c)
	if err != nil {
		return nil, false, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	rows, err := e.load(ctx, table)
	if err != nil {
		return nil, false, err
	}
	for _, r := range rows {
		if Match(r, nc) {
			return r, true, nil
		}
	}
	return nil, false, nil
}

// FindAll returns every record of table; an absent table is empty.
func (e *Engine) FindAll(ctx context.Context, table string) ([]Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.load(ctx, table)
}

// Update shallow-merges patch onto every record matching c and
// returns how many records changed.
func (e *Engine) Update(ctx context.Context, table string, c Criteria, patch Record) (int, error) {
	nc, err := normalize(c)
	if err != nil {
		return 0, err
	}
	np, err := ToRecord(patch)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.load(ctx, table)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if !Match(r, nc) {
			continue
		}
		for k, v := range np {
			r[k] = v
		}
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, e.store(ctx, table, rows)
}

// Delete removes every record matching c and returns the count.
func (e *Engine) Delete(ctx context.Context, table string, c Criteria) (int, error) {
	nc, err := normalize(c)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.load(ctx, table)
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	for _, r := range rows {
		if !Match(r, nc) {
			kept = append(kept, r)
		}
	}
	removed := len(rows) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, e.store(ctx, table, kept)
}

// Exists reports whether a key for table has ever been written, even
// if the table is now empty.  Seeding uses it as its guard.
func (e *Engine) Exists(ctx context.Context, table string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok, err := e.backend.Load(ctx, table)
	return ok, err
}

// Put replaces the whole content of table.
func (e *Engine) Put(ctx context.Context, table string, rows []Record) error {
	if rows == nil {
		rows = []Record{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(ctx, table, rows)
}

func (e *Engine) load(ctx context.Context, table string) ([]Record, error) {
	raw, ok, err := e.backend.Load(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	if !ok || len(raw) == 0 {
		return []Record{}, nil
	}
	var rows []Record
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	if rows == nil {
		rows = []Record{}
	}
	return rows, nil
}

func (e *Engine) store(ctx context.Context, table string, rows []Record) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}
	if err := e.backend.Store(ctx, table, raw); err != nil {
		return fmt.Errorf("store %s: %w", table, err)
	}
	return nil
}
