// Package scheduler runs the periodic jobs: the daily signal dispatch and
// the hourly expiry checks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"trading-signal-bot/internal/messages"
	"trading-signal-bot/internal/subscription"
	"trading-signal-bot/types"
)

const shutdownGrace = 30 * time.Second

type signalDispatcher interface {
	Tick(ctx context.Context)
}

type Config struct {
	// SignalTime is the daily fire time in local "HH:MM".
	SignalTime string
	// CheckExpireEvery is the period of the expiry checker.
	CheckExpireEvery time.Duration
	// NotifyBeforeSeconds is the pre-expiry warning window.
	NotifyBeforeSeconds int64
}

type Scheduler struct {
	dispatcher signalDispatcher
	manager    *subscription.Manager
	sender     types.Sender
	cfg        Config
	log        *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewScheduler(dispatcher signalDispatcher, manager *subscription.Manager, sender types.Sender, cfg Config, log *slog.Logger) (*Scheduler, error) {
	if _, _, err := parseFireTime(cfg.SignalTime); err != nil {
		return nil, err
	}
	if cfg.CheckExpireEvery <= 0 {
		cfg.CheckExpireEvery = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		dispatcher: dispatcher,
		manager:    manager,
		sender:     sender,
		cfg:        cfg,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("scheduler started",
		"signal_time", s.cfg.SignalTime, "check_expire_every", s.cfg.CheckExpireEvery)

	s.wg.Add(2)
	go s.signalLoop()
	go s.expiryLoop()
}

// Stop cancels both loops and waits for in-flight work, bounded by the
// shutdown grace period.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
	case <-time.After(shutdownGrace):
		s.log.Warn("scheduler shutdown timed out, abandoning in-flight work")
	}
}

func (s *Scheduler) signalLoop() {
	defer s.wg.Done()

	for {
		next := nextFireTime(time.Now(), s.cfg.SignalTime)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.dispatcher.Tick(s.ctx)
		}
	}
}

func (s *Scheduler) expiryLoop() {
	defer s.wg.Done()

	s.runExpiryChecks()

	ticker := time.NewTicker(s.cfg.CheckExpireEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runExpiryChecks()
		}
	}
}

// The two passes are serialized: warnings first, then deactivation.
func (s *Scheduler) runExpiryChecks() {
	s.manager.PreExpiryPass(s.cfg.NotifyBeforeSeconds, func(telegramID int64, hoursRemaining int) error {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		return s.sender.Send(ctx, telegramID, messages.PreExpiryNotice(hoursRemaining))
	})

	s.manager.ExpirePass(func(telegramID int64) error {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		return s.sender.Send(ctx, telegramID, messages.SubscriptionExpired())
	})
}

func parseFireTime(v string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid fire time %q, want HH:MM", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid fire time %q, want HH:MM", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid fire time %q, want HH:MM", v)
	}
	return hour, minute, nil
}

// nextFireTime returns the next local occurrence of the HH:MM fire time
// strictly after now.
func nextFireTime(now time.Time, fireAt string) time.Time {
	hour, minute, _ := parseFireTime(fireAt)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
