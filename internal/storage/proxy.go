package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AccessLogKey is the backend key holding the persisted audit log.
const AccessLogKey = "database_access_logs"

// DefaultLogLimit bounds both the in-memory and the persisted log.
const DefaultLogLimit = 100

// Access log statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusDenied  = "DENIED"
)

// Anonymous is recorded when no actor is attached to the context.
const Anonymous = "ANONYMOUS"

// AccessLogEntry is one audited operation.
type AccessLogEntry struct {
	Query     string    `json:"query"`     // e.g. "INSERT bookings"
	Timestamp time.Time `json:"timestamp"` // when the call was made
	Status    string    `json:"status"`    // SUCCESS, ERROR or DENIED
	User      string    `json:"user"`      // acting user or ANONYMOUS
}

// Policy decides whether op on table is allowed for the request
// carried by ctx.
type Policy func(ctx context.Context, op Operation, table string) bool

// AllowAll is the default policy.
func AllowAll(context.Context, Operation, string) bool { return true }

type actorKey struct{}

// WithActor attaches the acting user id to ctx.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user id or Anonymous.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return Anonymous
}

// Proxy guards an Engine with a Policy and records every call.
type Proxy struct {
	engine *Engine
	policy Policy
	limit  int
	log    *logrus.Logger

	mu      sync.Mutex
	entries []AccessLogEntry
	now     func() time.Time
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithPolicy replaces the AllowAll default.
func WithPolicy(p Policy) ProxyOption {
	return func(x *Proxy) {
		if p != nil {
			x.policy = p
		}
	}
}

// WithLogLimit changes the number of retained entries.
func WithLogLimit(n int) ProxyOption {
	return func(x *Proxy) {
		if n > 0 {
			x.limit = n
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) ProxyOption {
	return func(x *Proxy) { x.now = now }
}

// NewProxy wraps engine.  A nil logger discards output.
func NewProxy(engine *Engine, log *logrus.Logger, opts ...ProxyOption) *Proxy {
	if engine == nil {
		panic("nil engine passed to NewProxy")
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	p := &Proxy{
		engine: engine,
		policy: AllowAll,
		limit:  DefaultLogLimit,
		log:    log,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Connect records a CONNECT entry.  main calls it once at startup.
func (p *Proxy) Connect(ctx context.Context) error {
	return p.guard(ctx, OpConnect, "", func() error { return nil })
}

func (p *Proxy) Insert(ctx context.Context, table string, rec Record) error {
	return p.guard(ctx, OpInsert, table, func() error {
		return p.engine.Insert(ctx, table, rec)
	})
}

func (p *Proxy) FindOne(ctx context.Context, table string, c Criteria) (Record, bool, error) {
	var (
		rec Record
		ok  bool
	)
	err := p.guard(ctx, OpSelect, table, func() error {
		var err error
		rec, ok, err = p.engine.FindOne(ctx, table, c)
		return err
	})
	return rec, ok, err
}

func (p *Proxy) FindAll(ctx context.Context, table string) ([]Record, error) {
	var rows []Record
	err := p.guard(ctx, OpScan, table, func() error {
		var err error
		rows, err = p.engine.FindAll(ctx, table)
		return err
	})
	return rows, err
}

func (p *Proxy) Update(ctx context.Context, table string, c Criteria, patch Record) (int, error) {
	var n int
	err := p.guard(ctx, OpUpdate, table, func() error {
		var err error
		n, err = p.engine.Update(ctx, table, c, patch)
		return err
	})
	return n, err
}

func (p *Proxy) Delete(ctx context.Context, table string, c Criteria) (int, error) {
	var n int
	err := p.guard(ctx, OpDelete, table, func() error {
		var err error
		n, err = p.engine.Delete(ctx, table, c)
		return err
	})
	return n, err
}

func (p *Proxy) guard(ctx context.Context, op Operation, table string, fn func() error) error {
	entry := AccessLogEntry{
		Query:     query(op, table),
		Timestamp: p.now().UTC(),
		User:      ActorFrom(ctx),
	}
	if !p.policy(ctx, op, table) {
		entry.Status = StatusDenied
		p.record(ctx, entry)
		p.log.WithFields(logrus.Fields{"op": op, "table": table, "user": entry.User}).Warn("storage access denied")
		return fmt.Errorf("%s: %w", entry.Query, ErrAccessDenied)
	}
	err := fn()
	entry.Status = StatusSuccess
	if err != nil {
		entry.Status = StatusError
		p.log.WithError(err).WithFields(logrus.Fields{"op": op, "table": table}).Error("storage operation failed")
	}
	p.record(ctx, entry)
	return err
}

func query(op Operation, table string) string {
	if table == "" {
		return string(op)
	}
	return string(op) + " " + table
}

// record appends to both logs.  A failure to persist is logged and
// never fails the audited operation.
func (p *Proxy) record(ctx context.Context, e AccessLogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = appendBounded(p.entries, e, p.limit)

	persisted, err := p.loadPersisted(ctx)
	if err != nil {
		p.log.WithError(err).Warn("read access log")
		persisted = nil
	}
	persisted = appendBounded(persisted, e, p.limit)
	raw, err := json.Marshal(persisted)
	if err == nil {
		err = p.engine.Backend().Store(ctx, AccessLogKey, raw)
	}
	if err != nil {
		p.log.WithError(err).Warn("persist access log")
	}
}

func appendBounded(s []AccessLogEntry, e AccessLogEntry, limit int) []AccessLogEntry {
	s = append(s, e)
	if over := len(s) - limit; over > 0 {
		s = append([]AccessLogEntry(nil), s[over:]...)
	}
	return s
}

func (p *Proxy) loadPersisted(ctx context.Context) ([]AccessLogEntry, error) {
	raw, ok, err := p.engine.Backend().Load(ctx, AccessLogKey)
	if err != nil || !ok || len(raw) == 0 {
		return nil, err
	}
	var out []AccessLogEntry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode access log: %w", err)
	}
	return out, nil
}

// AccessLogs returns a copy of the in-memory log, oldest first.
func (p *Proxy) AccessLogs() []AccessLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AccessLogEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// PersistedLogs returns the log stored in the backend, which survives
// restarts of the process.
func (p *Proxy) PersistedLogs(ctx context.Context) ([]AccessLogEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out, err := p.loadPersisted(ctx)
	if out == nil {
		out = []AccessLogEntry{}
	}
	return out, err
}

// ClearLogs empties both logs.
func (p *Proxy) ClearLogs(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
	if err := p.engine.Backend().Remove(ctx, AccessLogKey); err != nil {
		return fmt.Errorf("clear access log: %w", err)
	}
	return nil
}

var _ DataAccess = (*Proxy)(nil)
var _ DataAccess = (*Engine)(nil)
