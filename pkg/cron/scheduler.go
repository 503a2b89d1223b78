// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	importhandler "github.com/FACorreiaa/utility-bill-sync/internal/domain/import/handler"
)

// DefaultRunTimeout bounds one scheduled sync.
const DefaultRunTimeout = 30 * time.Minute

// Job syncs every PDF under Dir with Syncer.
type Job struct {
	Syncer    importhandler.Syncer
	Dir       string
	Recursive bool
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	jobs     []Job
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running sync.WaitGroup
}

// NewScheduler creates a new job scheduler. Jobs without a directory are
// ignored.
func NewScheduler(schedule string, jobs []Job, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	var active []Job
	for _, j := range jobs {
		if j.Dir != "" && j.Syncer != nil {
			active = append(active, j)
		}
	}

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		jobs:     active,
		timeout:  DefaultRunTimeout,
		logger:   logger,
	}
}

// Jobs returns the number of active jobs.
func (s *Scheduler) Jobs() int {
	return len(s.jobs)
}

// Start registers one entry per job and starts the scheduler.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return errors.New("cron schedule is empty")
	}
	for _, j := range s.jobs {
		j := j
		if _, err := s.cron.AddFunc(s.schedule, func() { s.track(j) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop stops the scheduler and waits for running syncs, including those
// started by RunNow.
func (s *Scheduler) Stop() {
	s.logger.Info("cron scheduler stopping")
	<-s.cron.Stop().Done()
	s.running.Wait()
}

// RunNow triggers every job once in the background.
func (s *Scheduler) RunNow() {
	for _, j := range s.jobs {
		j := j
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			s.run(j)
		}()
	}
}

func (s *Scheduler) track(j Job) {
	s.running.Add(1)
	defer s.running.Done()
	s.run(j)
}

// run syncs one directory. Runs of the same scheduler never overlap.
func (s *Scheduler) run(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	provider := j.Syncer.Provider()
	log := s.logger.With(slog.String("provider", provider), slog.String("dir", j.Dir))
	log.Info("starting scheduled sync")

	paths, err := importhandler.ExpandPDFPaths([]string{j.Dir}, j.Recursive)
	if err != nil {
		log.Error("failed to expand directory", slog.Any("error", err))
		return
	}
	if len(paths) == 0 {
		log.Info("scheduled sync found no documents")
		return
	}

	summary, err := j.Syncer.SyncFromDocuments(ctx, paths)
	if err != nil {
		log.Error("scheduled sync failed", slog.Any("error", err))
		return
	}

	log.Info("scheduled sync completed",
		slog.Int("pdf_count", summary.PDFCount),
		slog.Int("files_failed", summary.FilesFailed),
		slog.Int("created", summary.Created),
		slog.Int("skipped", summary.Skipped),
	)
}
