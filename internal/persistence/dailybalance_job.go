package persistence

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// BalanceSource reports the current wallet balance for one
// (exchange, asset) pair, satisfied by internal/engine's adapter over an
// exchangesim.Account in production wiring and by a fake in tests.
type BalanceSource interface {
	Exchange() string
	Asset() string
	Balance() float64
}

// DailyBalanceJob appends one DailyBalance row per tracked
// (exchange, asset) pair at @daily UTC, replacing a hand-rolled
// "is it a new UTC day yet" ticker loop with a scheduled cron entry.
type DailyBalanceJob struct {
	repo    *DailyBalanceRepo
	sources []BalanceSource
	log     *slog.Logger
}

// NewDailyBalanceJob builds a job that snapshots every source in sources.
func NewDailyBalanceJob(repo *DailyBalanceRepo, sources []BalanceSource, log *slog.Logger) *DailyBalanceJob {
	if log == nil {
		log = slog.Default()
	}
	return &DailyBalanceJob{repo: repo, sources: sources, log: log}
}

// Run executes one snapshot pass, batch-saving a row per source for
// today's UTC date.
func (j *DailyBalanceJob) Run() error {
	day := time.Now().UTC().Format("2006-01-02")
	rows := make([]DailyBalance, 0, len(j.sources))
	for _, s := range j.sources {
		rows = append(rows, DailyBalance{
			Exchange: s.Exchange(),
			Asset:    s.Asset(),
			Balance:  s.Balance(),
			Day:      day,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := j.repo.BatchSave(ctx, rows, true); err != nil {
		j.log.Error("daily balance snapshot failed", "error", err)
		return err
	}
	j.log.Info("daily balance snapshot saved", "day", day, "rows", len(rows))
	return nil
}

// Name identifies the job for scheduler logging.
func (j *DailyBalanceJob) Name() string { return "daily-balance-snapshot" }

// Scheduler is a thin wrapper around a robfig/cron/v3 instance, set to
// the UTC time zone, that runs registered DailyBalanceJobs.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewScheduler builds a Scheduler with second-level precision disabled
// (standard 5-field cron expressions, matching robfig/cron/v3's default
// parser).
func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{cron: cron.New(cron.WithLocation(time.UTC)), log: log}
}

// AddDailyBalanceJob registers job to run once per day at midnight UTC.
func (s *Scheduler) AddDailyBalanceJob(job *DailyBalanceJob) error {
	_, err := s.cron.AddFunc("@daily", func() {
		if err := job.Run(); err != nil {
			s.log.Error("scheduled job failed", "job", job.Name(), "error", err)
		}
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
