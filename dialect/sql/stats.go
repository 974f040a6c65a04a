package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hypernetix/hyperspot-sub000/dialect"
)

// stmtKind separates reads from writes in the counters. Scoped reads
// and the mutation gate funnel through the same two driver methods.
type stmtKind int

const (
	stmtQuery stmtKind = iota
	stmtExec
)

// QueryStats accumulates statement counters for one driver. Safe for
// concurrent use; counters only grow between Reset calls.
type QueryStats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds, both kinds combined
	slow     atomic.Int64
	errors   atomic.Int64
}

func (s *QueryStats) observe(kind stmtKind, elapsed time.Duration, err error) {
	if kind == stmtQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.duration.Add(int64(elapsed))
	if err != nil {
		s.errors.Add(1)
	}
}

// Stats returns a point-in-time snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.errors.Load(),
	}
}

// Reset zeroes every counter.
func (s *QueryStats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
}

// StatsSnapshot is a point-in-time view of a driver's counters.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the mean statement duration across both
// queries and execs, zero when nothing ran yet.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook receives every statement that exceeds the slow
// threshold, with the duration it took.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver decorates a Driver with statement accounting and slow
// statement detection. The scoped layers run on it unchanged; nothing
// here inspects or rewrites SQL.
type StatsDriver struct {
	*Driver
	stats     *QueryStats
	slowNanos atomic.Int64
	slowHook  SlowQueryHook
}

// StatsOption configures a StatsDriver at construction.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement counts
// as slow. The default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowNanos.Store(int64(d))
	}
}

// WithSlowQueryHook installs a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog reports slow statements through slog.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, args []any, duration time.Duration) {
		slog.Warn("slow statement", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps drv with statement accounting.
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	sdrv := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	fmt.Println(sdrv.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver: drv,
		stats:  &QueryStats{},
	}
	s.slowNanos.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the driver's counters.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.slowNanos.Load())
}

// SetSlowThreshold updates the slow statement threshold. Safe to call
// while statements are in flight.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.slowNanos.Store(int64(threshold))
}

// Query executes a query on the wrapped driver and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.track(ctx, stmtQuery, query, args, start, err)
	return err
}

// Exec executes a statement on the wrapped driver and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.track(ctx, stmtExec, query, args, start, err)
	return err
}

func (d *StatsDriver) track(ctx context.Context, kind stmtKind, query string, args any, start time.Time, err error) {
	elapsed := time.Since(start)
	d.stats.observe(kind, elapsed, err)
	if elapsed > time.Duration(d.slowNanos.Load()) {
		d.stats.slow.Add(1)
		if d.slowHook != nil {
			list, _ := args.([]any)
			d.slowHook(ctx, query, list, elapsed)
		}
	}
}

// Tx starts a transaction whose statements feed the same counters.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, driver: d}, nil
}

type statsTx struct {
	dialect.Tx
	driver *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.track(ctx, stmtQuery, query, args, start, err)
	return err
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.track(ctx, stmtExec, query, args, start, err)
	return err
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*statsTx)(nil)
)

// OpenWithStats opens a database connection with statement accounting
// already attached. The returned QueryStats is the driver's own.
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, nil, err
	}
	drv := NewStatsDriver(NewDriver(driverName, Conn{db}), opts...)
	return drv, drv.QueryStats(), nil
}
