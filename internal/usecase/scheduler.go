package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	applogger "CandlePull/pkg/logger"
)

const (
	schedulerLockKey = "lock:scheduler"
	schedulerLockTTL = 5 * time.Minute
)

// Fetcher runs one candle fetch.
type Fetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResult, error)
}

// Schedule says how often a timeframe should be fetched.
type Schedule struct {
	Timeframe domrepo.Timeframe
	Interval  time.Duration
	Name      string
}

// DefaultSchedules fetch each timeframe once per bucket.
var DefaultSchedules = []Schedule{
	{Timeframe: domrepo.TF5m, Interval: 5 * time.Minute, Name: "5min"},
	{Timeframe: domrepo.TF15m, Interval: 15 * time.Minute, Name: "15min"},
	{Timeframe: domrepo.TF30m, Interval: 30 * time.Minute, Name: "30min"},
	{Timeframe: domrepo.TF1h, Interval: 60 * time.Minute, Name: "1hour"},
}

// Scheduler fetches every schedule whose interval has elapsed since its last
// recorded fetch. Schedules are processed sequentially.
type Scheduler struct {
	fetcher   Fetcher
	fetchLog  domrepo.FetchLog
	locker    domrepo.Locker
	metrics   domrepo.Metrics
	schedules []Schedule
	symbol    string
	tick      time.Duration
	log       *applogger.Logger
	now       func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// SchedulerOption configures Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedules replaces the default schedules.
func WithSchedules(s []Schedule) SchedulerOption {
	return func(sc *Scheduler) {
		if len(s) > 0 {
			sc.schedules = s
		}
	}
}

// WithSchedulerSymbol sets the symbol passed to every fetch.
func WithSchedulerSymbol(symbol string) SchedulerOption {
	return func(sc *Scheduler) { sc.symbol = symbol }
}

// WithTick sets how often the background loop runs.
func WithTick(d time.Duration) SchedulerOption {
	return func(sc *Scheduler) {
		if d > 0 {
			sc.tick = d
		}
	}
}

// WithLocker serializes runs across replicas.
func WithLocker(l domrepo.Locker) SchedulerOption {
	return func(sc *Scheduler) { sc.locker = l }
}

func NewScheduler(fetcher Fetcher, fetchLog domrepo.FetchLog, metrics domrepo.Metrics, log *applogger.Logger, opts ...SchedulerOption) *Scheduler {
	if log == nil {
		log = applogger.Nop()
	}
	s := &Scheduler{
		fetcher:   fetcher,
		fetchLog:  fetchLog,
		metrics:   metrics,
		schedules: DefaultSchedules,
		tick:      time.Minute,
		log:       log,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run checks every schedule once.
func (s *Scheduler) Run(ctx context.Context) (*models.ScheduleSummary, error) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, schedulerLockKey, schedulerLockTTL)
		if err != nil {
			s.log.Warn("scheduler lock unavailable, running unlocked", applogger.Error(err))
		} else if !ok {
			return nil, ErrSchedulerBusy
		} else {
			defer func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), schedulerLockKey); err != nil {
					s.log.Warn("scheduler unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	now := s.now().UTC()
	summary := &models.ScheduleSummary{
		Timestamp:      now,
		TotalSchedules: len(s.schedules),
		Results:        make([]models.ScheduleOutcome, 0, len(s.schedules)),
	}

	for _, sc := range s.schedules {
		out := s.runOne(ctx, sc, now)
		switch out.Status {
		case models.ScheduleSuccess:
			summary.Fetched++
		case models.ScheduleSkipped:
			summary.Skipped++
		default:
			summary.Errors++
		}
		summary.Results = append(summary.Results, out)
	}

	s.log.Info("scheduler run complete",
		applogger.Int("fetched", summary.Fetched),
		applogger.Int("skipped", summary.Skipped),
		applogger.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (s *Scheduler) runOne(ctx context.Context, sc Schedule, now time.Time) models.ScheduleOutcome {
	out := models.ScheduleOutcome{Timeframe: sc.Timeframe.Minutes(), Name: sc.Name}

	last, ok, err := s.fetchLog.LastFetch(ctx, sc.Timeframe)
	if err != nil {
		s.log.Warn("fetch log read failed", applogger.String("schedule", sc.Name), applogger.Error(err))
		ok = false
	}
	if ok {
		if elapsed := now.Sub(last); elapsed < sc.Interval {
			next := int(math.Round((sc.Interval - elapsed).Minutes()))
			out.Status = models.ScheduleSkipped
			out.NextFetchInMinute = &next
			return out
		}
	}

	res, err := s.fetcher.Fetch(ctx, models.FetchRequest{Timeframe: sc.Timeframe.Minutes(), Symbol: s.symbol})
	if err != nil {
		s.metrics.RecordError("scheduler_fetch")
		out.Status = models.ScheduleError
		out.Error = err.Error()
		return out
	}
	if err := s.fetchLog.RecordFetch(ctx, sc.Timeframe, s.now()); err != nil {
		s.log.Error("fetch log write failed", applogger.String("schedule", sc.Name), applogger.Error(err))
	}
	out.Status = models.ScheduleSuccess
	out.Result = res
	return out
}

// Start runs the scheduler every tick until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrSchedulerBusy) {
				s.log.Error("scheduler run failed", applogger.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
	s.log.Info("scheduler started", applogger.Duration("tick", s.tick))
}

// Stop ends the background loop and waits for the current run.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
