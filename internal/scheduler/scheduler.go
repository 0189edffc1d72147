package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"TransferSentinel/internal/collector"
	"TransferSentinel/internal/metrics"
	"TransferSentinel/internal/model"
)

// Evaluation is the outcome for one manager in a batch.
type Evaluation struct {
	EntryID int
	Status  *model.TransferStatus
	Err     error
}

// BatchResult is one run over every configured manager, ordered by entry id.
type BatchResult struct {
	RunID       string
	StartedAt   time.Time
	Evaluations []Evaluation
}

// Scheduler periodically re-evaluates the configured managers.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	Entries     []int
	Concurrency int
	Ctx         context.Context

	mu      sync.Mutex
	last    *BatchResult
	running sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, m *metrics.Metrics, logger *zap.Logger, entries []int, concurrency int) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collector:   col,
		Metrics:     m,
		Log:         logger,
		Entries:     entries,
		Concurrency: concurrency,
		Ctx:         ctx,
	}
}

// RegisterAll registers the periodic watch task.
func (s *Scheduler) RegisterAll(watchCron string) error {
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Int("entries", len(s.Entries)))
}

// Stop stops the cron scheduler and waits for running batches to finish,
// including those started by RunInBackground.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.running.Wait()
	s.Log.Info("scheduler stopped")
}

// RunNow evaluates every configured manager immediately.
func (s *Scheduler) RunNow(ctx context.Context) *BatchResult {
	return s.runBatch(ctx)
}

// RunInBackground starts a batch without waiting for it. Stop waits for it.
func (s *Scheduler) RunInBackground(ctx context.Context) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.runBatch(ctx)
	}()
}

// Last returns the most recent completed batch, or nil.
func (s *Scheduler) Last() *BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) watchTask() {
	s.runBatch(s.Ctx)
}

func (s *Scheduler) runBatch(ctx context.Context) *BatchResult {
	result := &BatchResult{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		Evaluations: make([]Evaluation, len(s.Entries)),
	}
	log := s.Log.With(zap.String("run_id", result.RunID))
	log.Info("running watch batch", zap.Int("entries", len(s.Entries)))

	// Per-entry failures are recorded, never returned, so one bad manager
	// does not cancel the rest of the batch.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, entryID := range s.Entries {
		g.Go(func() error {
			result.Evaluations[i] = s.evaluate(gctx, log, entryID)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Evaluations, func(i, j int) bool {
		return result.Evaluations[i].EntryID < result.Evaluations[j].EntryID
	})
	if s.Metrics != nil {
		s.Metrics.ObserveRun(time.Now())
	}
	log.Info("watch batch finished", zap.Duration("took", time.Since(result.StartedAt)))

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result
}

func (s *Scheduler) evaluate(ctx context.Context, log *zap.Logger, entryID int) Evaluation {
	start := time.Now()
	status, err := s.Collector.Status(ctx, entryID)
	took := time.Since(start)

	log = log.With(zap.Int("entry", entryID))
	outcome := metrics.OutcomeError
	ft := 0
	switch {
	case err != nil:
		log.Error("evaluate entry", zap.Error(err))
	case status.Determinate:
		outcome = metrics.OutcomeDeterminate
		ft = status.FreeTransfers
		log.Info("free transfers",
			zap.Int("gameweek", status.NextGameweek),
			zap.Int("free_transfers", ft))
	default:
		outcome = metrics.OutcomeIndeterminate
		log.Info("free transfers indeterminate",
			zap.Int("gameweek", status.CurrentGameweek),
			zap.String("reason", status.Reason))
	}
	if s.Metrics != nil {
		s.Metrics.ObserveEvaluation(entryID, outcome, ft, took)
	}
	return Evaluation{EntryID: entryID, Status: status, Err: err}
}
