/*
scheduler.go - Automated settlement scheduler

PURPOSE:
  Periodically aggregates the previous calendar month's ledger entries
  into a settlement run so back-office staff do not have to trigger the
  run by hand at each month boundary.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets the last fully-elapsed calendar month (UTC)
  - Skips the month if a completed run covering it already exists
  - Records every run (including failed ones) for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSettlementScheduler(store, handler, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunSettlement endpoint (manual runs)
  - commission/settlement.go: Aggregator
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/commission-engine/commission"
)

// SettlementScheduler handles automated month-end settlement runs.
type SettlementScheduler struct {
	Store         Store
	Agg           *commission.Aggregator
	CheckInterval time.Duration
	Enabled       bool

	log    *logrus.Logger
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSettlementScheduler creates a new scheduler.
func NewSettlementScheduler(store Store, handler *Handler, log *logrus.Logger) *SettlementScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SettlementScheduler{
		Store:         store,
		Agg:           handler.Agg,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SettlementScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		ss.log.Info("settlement scheduler disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	ss.log.WithField("interval", ss.CheckInterval).Info("settlement scheduler started")
}

// Stop stops the scheduler.
func (ss *SettlementScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.log.Info("settlement scheduler stopped")
	}
}

func (ss *SettlementScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.checkAndProcess()

	for {
		select {
		case <-ss.ticker.C:
			ss.checkAndProcess()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SettlementScheduler) checkAndProcess() {
	ctx := context.Background()
	from, to := previousMonth(time.Now().UTC())

	done, err := ss.alreadySettled(ctx, from, to)
	if err != nil {
		ss.log.WithError(err).Error("settlement scheduler: checking run history failed")
		return
	}
	if done {
		return
	}

	run, err := ss.Agg.RunSettlement(ctx, ss.Store, from, to)
	if err != nil {
		ss.log.WithError(err).WithFields(logrus.Fields{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		}).Error("settlement scheduler: run failed")
		return
	}

	ss.log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"lines":  len(run.Lines),
	}).Info("settlement scheduler: monthly run completed")
}

// alreadySettled reports whether a completed run covering exactly this
// period is on record.
func (ss *SettlementScheduler) alreadySettled(ctx context.Context, from, to time.Time) (bool, error) {
	runs, err := ss.Store.ListSettlementRuns(ctx)
	if err != nil {
		return false, err
	}
	for _, run := range runs {
		if run.Status == "completed" && run.PeriodStart.Equal(from) && run.PeriodEnd.Equal(to) {
			return true, nil
		}
	}
	return false, nil
}

// RunNow triggers an immediate check (for testing/admin).
func (ss *SettlementScheduler) RunNow() {
	ss.checkAndProcess()
}

// previousMonth returns the last fully-elapsed calendar month as a
// half-open [start, end) window in UTC.
func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, -1, 0), end
}
