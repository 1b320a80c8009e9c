package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eplancompare/eplancompare/internal/alerting"
	"github.com/eplancompare/eplancompare/internal/catalog"
	"github.com/eplancompare/eplancompare/internal/metrics"
	"github.com/eplancompare/eplancompare/internal/storage"
	"github.com/eplancompare/eplancompare/pkg/plansources"
)

const (
	jobName = "refresh_catalogs"

	// Advisory lock key shared by every worker replica.
	lockKey int64 = 52_0001
)

// Run starts a worker that periodically refreshes plan catalogs and the
// regulated tariff. On postgres backends a session advisory lock ensures
// only one replica executes a run; on sqlite and memory there is nothing to
// coordinate.
func Run(ctx context.Context, driver, dsn string) error {
	st, err := storage.Open(ctx, storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	var monitor *storage.PoolMonitor
	if strings.HasPrefix(driver, "postgres") {
		monitor, err = storage.OpenPoolMonitor(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open pool monitor: %w", err)
		}
		defer monitor.Close()
		go monitor.ReportStats(ctx, 30*time.Second)
	}

	svc := catalog.NewServiceWithStorage(catalog.DefaultConfig(), st)
	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())

	// Interval spec: integer seconds or a standard cron expression. The
	// setting row overrides the environment, so the API can retune a
	// running worker.
	intervalSetting := "3600"
	if raw := os.Getenv("EPLANCOMPARE_CRON_INTERVAL"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, "refresh_interval"); err == nil && val != "" {
		intervalSetting = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	getNextRun := func(setting string, from time.Time) time.Time {
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return from.Add(time.Duration(v) * time.Second)
		}
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(from)
		}
		return from.Add(time.Hour)
	}

	// Fresh worker runs immediately.
	nextRun := time.Now()

	log.Printf("cron worker starting, interval=%q driver=%s", intervalSetting, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, "refresh_interval"); err == nil && val != "" && val != intervalSetting {
				log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = getNextRun(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			release, held, err := acquireLock(ctx, st, monitor)
			if err != nil {
				log.Printf("cron: acquire lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !held {
				log.Printf("cron: lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			runErr := func() error {
				defer release()
				return refreshOnce(ctx, svc, alerter, started)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := st.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
			} else {
				log.Printf("cron: job %s completed successfully (duration=%s)", jobName, dur)
			}

			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

// acquireLock prefers the pool monitor's session lock; the storage-level
// lock covers backends without one (always granted there).
func acquireLock(ctx context.Context, st storage.Storage, monitor *storage.PoolMonitor) (func(), bool, error) {
	if monitor != nil {
		held, release, err := monitor.TryLock(ctx, lockKey)
		if err != nil || !held {
			return func() {}, held, err
		}
		return release, true, nil
	}

	held, err := st.AcquireAdvisoryLock(ctx, lockKey)
	if err != nil || !held {
		return func() {}, held, err
	}
	return func() {
		if _, err := st.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
			log.Printf("cron: release advisory lock failed: %v", err)
		}
	}, true, nil
}

// refreshOnce refreshes every registered catalog source and then the tariff.
// Per-source failures are collected and alerted; the first one is returned
// so the job row records the run as failed.
func refreshOnce(ctx context.Context, svc *catalog.Service, alerter *alerting.Alerter, started time.Time) error {
	sources := plansources.List()

	var (
		failures []alerting.SourceFailure
		firstErr error
	)
	for _, key := range sources {
		if _, _, err := svc.RefreshSource(ctx, key); err != nil {
			log.Printf("cron: refresh source %s failed: %v", key, err)
			failures = append(failures, alerting.SourceFailure{Source: key, Error: err.Error(), Attempts: 1})
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if _, err := svc.RefreshTariff(ctx); err != nil {
		// A stale tariff snapshot still serves; log, don't fail the run.
		log.Printf("cron: refresh tariff failed: %v", err)
	}

	if len(failures) > 0 {
		alert := alerting.RefreshAlert{
			JobName:       jobName,
			TotalCount:    len(sources),
			SuccessCount:  len(sources) - len(failures),
			FailedCount:   len(failures),
			Duration:      time.Since(started),
			FailedDetails: failures,
			Timestamp:     time.Now(),
		}
		if err := alerter.SendRefreshAlert(ctx, alert); err != nil {
			log.Printf("cron: send alert failed: %v", err)
		}
	}

	return firstErr
}
