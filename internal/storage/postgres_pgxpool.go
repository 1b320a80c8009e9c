package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eplancompare/eplancompare/internal/metrics"
)

// PoolMonitor holds a dedicated pgx pool next to the gorm storage when the
// backend is postgres. The worker uses it for session-scoped advisory locks
// (gorm's pooled connections can't guarantee the unlock runs on the same
// session that locked) and for pool gauge reporting.
type PoolMonitor struct {
	pool *pgxpool.Pool
}

func OpenPoolMonitor(ctx context.Context, dsn string) (*PoolMonitor, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PoolMonitor{pool: pool}, nil
}

func (p *PoolMonitor) Close() {
	p.pool.Close()
}

func (p *PoolMonitor) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// TryLock attempts a session advisory lock. The returned release function
// unlocks on the pooled session that acquired it.
func (p *PoolMonitor) TryLock(ctx context.Context, key int64) (bool, func(), error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return false, nil, err
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return false, nil, err
	}
	if !ok {
		conn.Release()
		return false, nil, nil
	}

	release := func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", key)
		conn.Release()
	}
	return true, release, nil
}

// ReportStats publishes pool gauges until the context is cancelled.
func (p *PoolMonitor) ReportStats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := p.pool.Stat()
			metrics.UpdateDBPoolMetrics("postgrespool",
				float64(st.TotalConns()),
				float64(st.IdleConns()),
				float64(st.AcquiredConns()),
				uint64(st.AcquireCount()))
		}
	}
}
