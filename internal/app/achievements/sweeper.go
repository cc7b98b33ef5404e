package achievements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const sweepConcurrency = 4

// Sweeper periodically evaluates achievements for recently active users, so
// badges are granted even when no request-time evaluation ran.
type Sweeper struct {
	evaluator *Evaluator
	activity  domain.ActivityStore
	interval  time.Duration
	window    time.Duration
	now       func() time.Time

	scheduler gocron.Scheduler
	// ctx scopes every scheduled sweep; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a sweeper that runs every interval and looks back window.
func NewSweeper(evaluator *Evaluator, activity domain.ActivityStore, interval, window time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: sweep interval must be positive", domain.ErrInvalidInput)
	}
	if window <= 0 {
		window = interval
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		ctx:       ctx,
		cancel:    cancel,
		evaluator: evaluator,
		activity:  activity,
		interval:  interval,
		window:    window,
		now:       time.Now,
		scheduler: scheduler,
	}, nil
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.RunOnce(s.ctx); err != nil {
				observability.Logger().Warn("achievement sweep finished with errors", "error", err)
			}
		}),
		gocron.WithName("achievement-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep job: %w", err)
	}

	s.scheduler.Start()
	observability.Logger().Info("achievement sweeper started", "interval", s.interval.String(), "window", s.window.String())
	return nil
}

// Stop cancels a running sweep, then shuts the scheduler down and waits for it.
func (s *Sweeper) Stop() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

// RunOnce evaluates every user active within the window and returns how many
// badges were granted.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	log := observability.LoggerFromContext(ctx).With("component", "achievement_sweeper")

	users, err := s.activity.ListActiveUsers(ctx, s.now().Add(-s.window))
	if err != nil {
		return 0, fmt.Errorf("list active users: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}

	var (
		mu      sync.Mutex
		granted int
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, userID := range users {
		g.Go(func() error {
			badges, err := s.evaluator.Evaluate(gctx, userID)

			mu.Lock()
			defer mu.Unlock()
			granted += len(badges)
			if err != nil {
				errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("achievement sweep done", "users", len(users), "granted", granted)
	return granted, errors.Join(errs...)
}
