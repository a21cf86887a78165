package jobs

import (
	"context"
	"sync"
	"time"

	"orderhub/internal/messaging"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// CacheWarmer refills the product cache from the catalog.
type CacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
}

// BrokerProbe reports the broker connection state.
type BrokerProbe interface {
	State() messaging.State
}

// GaugeSetter is the subset of a prometheus gauge the probe job writes to.
type GaugeSetter interface {
	Set(float64)
}

type Intervals struct {
	CacheWarmup time.Duration
	BrokerProbe time.Duration
}

// Scheduler runs periodic maintenance jobs. Jobs never overlap with
// themselves.
type Scheduler struct {
	scheduler gocron.Scheduler
	warmer    CacheWarmer
	probe     BrokerProbe
	gauge     GaugeSetter
	logger    zerolog.Logger

	mu   sync.RWMutex
	jobs map[string]gocron.Job
}

// NewScheduler registers the cache warmup job when warmer is non-nil and the
// broker probe when probe is non-nil.
func NewScheduler(intervals Intervals, warmer CacheWarmer, probe BrokerProbe, gauge GaugeSetter, logger zerolog.Logger, opts ...gocron.SchedulerOption) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}

	s := &Scheduler{
		scheduler: scheduler,
		warmer:    warmer,
		probe:     probe,
		gauge:     gauge,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		jobs:      make(map[string]gocron.Job),
	}

	if warmer != nil && intervals.CacheWarmup > 0 {
		if err := s.register("product-cache-warmup", intervals.CacheWarmup, s.warmProductCache); err != nil {
			return nil, err
		}
	}
	if probe != nil && gauge != nil && intervals.BrokerProbe > 0 {
		if err := s.register("broker-state-probe", intervals.BrokerProbe, s.probeBroker); err != nil {
			return nil, err
		}
	}
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("registered background jobs")
	return s, nil
}

func (s *Scheduler) register(name string, every time.Duration, task func(context.Context) error) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task, context.Background()),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Wrapf(err, "register job %s", name)
	}
	s.mu.Lock()
	s.jobs[name] = job
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info().Msg("starting background jobs")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("stopping background jobs")
	return s.scheduler.Shutdown()
}

// JobNames lists registered jobs.
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// RunNow triggers a registered job outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return errors.Errorf("unknown job %q", name)
	}
	return job.RunNow()
}

func (s *Scheduler) warmProductCache(ctx context.Context) error {
	start := time.Now()
	stored, err := s.warmer.WarmCache(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("stored", stored).Msg("product cache warmup failed")
		return err
	}
	s.logger.Info().Int("stored", stored).Dur("took", time.Since(start)).Msg("product cache warmed")
	return nil
}

func (s *Scheduler) probeBroker(context.Context) error {
	state := s.probe.State()
	s.gauge.Set(float64(state))
	if state != messaging.StateConnected {
		s.logger.Warn().Str("state", state.String()).Msg("broker not connected")
	}
	return nil
}
