package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig   = errors.New("invalid scheduler configuration")
	ErrSweepInProgress = errors.New("expiry sweep already in progress")
)

// SweepFunc expires everything that ended before today
type SweepFunc func(ctx context.Context, today valueobject.Date) error

// ExpiryTriggerConfig holds configuration for the daily expiry trigger
type ExpiryTriggerConfig struct {
	// Hour and Minute are the earliest time of day (UTC) the sweep may run
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// Timeout bounds a single sweep
	Timeout time.Duration
}

// DefaultExpiryTriggerConfig returns default expiry trigger configuration
func DefaultExpiryTriggerConfig() ExpiryTriggerConfig {
	return ExpiryTriggerConfig{
		Hour:          0,
		Minute:        5,
		CheckInterval: time.Minute,
		Timeout:       10 * time.Minute,
	}
}

// Validate checks the configuration
func (c ExpiryTriggerConfig) Validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: run time %02d:%02d", ErrInvalidConfig, c.Hour, c.Minute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExpiryTrigger runs the subscription expiry sweep once per day
type ExpiryTrigger struct {
	config ExpiryTriggerConfig
	sweep  SweepFunc
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	sweeping    bool
	lastRunDate string
}

// NewExpiryTrigger creates a new expiry trigger
func NewExpiryTrigger(config ExpiryTriggerConfig, sweep SweepFunc, logger *zap.Logger) (*ExpiryTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryTrigger{
		config: config,
		sweep:  sweep,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start starts the trigger loop
func (t *ExpiryTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Expiry trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger and waits for a running sweep to return
func (t *ExpiryTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Expiry trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow runs a sweep immediately regardless of the time of day
func (t *ExpiryTrigger) TriggerNow(ctx context.Context) error {
	return t.run(ctx, valueobject.DateOf(t.now()))
}

func (t *ExpiryTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	// a restart after the run time still sweeps today
	t.checkAndTrigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the sweep once per date, at or after the configured time
func (t *ExpiryTrigger) checkAndTrigger(ctx context.Context) {
	now := t.now()
	today := valueobject.DateOf(now)

	t.mu.Lock()
	if t.lastRunDate == today.String() {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	runAt := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, now.Location())
	if now.Before(runAt) {
		return
	}

	if err := t.run(ctx, today); err != nil {
		t.logger.Error("Expiry sweep failed", zap.String("date", today.String()), zap.Error(err))
		return
	}
	t.mu.Lock()
	t.lastRunDate = today.String()
	t.mu.Unlock()
}

func (t *ExpiryTrigger) run(ctx context.Context, today valueobject.Date) error {
	t.mu.Lock()
	if t.sweeping {
		t.mu.Unlock()
		return ErrSweepInProgress
	}
	t.sweeping = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.sweeping = false
		t.mu.Unlock()
	}()

	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	t.logger.Info("Running subscription expiry sweep", zap.String("date", today.String()))
	if err := t.sweep(ctx, today); err != nil {
		return err
	}
	t.logger.Info("Subscription expiry sweep done",
		zap.String("date", today.String()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
