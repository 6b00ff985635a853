/*
scheduler.go - Automated invite reminder scheduler

PURPOSE:
  Periodically finds agents who were invited but never started
  onboarding and records a reminder touch so the front office can chase
  them. Keeps invitations from silently going stale.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects agents sitting in "invited" whose last reminder (or
    creation, if never reminded) is older than MaxInviteAge
  - Stamps last_reminded_at so the same agent isn't flagged again until
    the age elapses once more

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - MaxInviteAge:  How long an invite may sit untouched (default: 72h)
  - Enabled:       Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(store, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - agency/onboarding.go: The invited status
  - store/sqlite: InvitedBefore / TouchReminder
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/keystone/agency-office/store/sqlite"
)

// ReminderScheduler sweeps stale onboarding invitations.
type ReminderScheduler struct {
	Store         *sqlite.Store
	Log           *slog.Logger
	CheckInterval time.Duration
	MaxInviteAge  time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler with defaults.
func NewReminderScheduler(store *sqlite.Store, log *slog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		Store:         store,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		MaxInviteAge:  72 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("reminder scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Log.Info("reminder scheduler started",
		slog.Duration("interval", rs.CheckInterval),
		slog.Duration("max_invite_age", rs.MaxInviteAge))
}

// Stop stops the scheduler.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Log.Info("reminder scheduler stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Sweep immediately on start
	rs.Sweep(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.Sweep(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// Sweep runs one pass: flag every stale invited agent and stamp their
// reminder time. Exposed for tests and for a manual ops trigger.
func (rs *ReminderScheduler) Sweep(ctx context.Context) int {
	now := time.Now()
	cutoff := now.Add(-rs.MaxInviteAge)

	stale, err := rs.Store.InvitedBefore(ctx, cutoff)
	if err != nil {
		rs.Log.LogAttrs(ctx, slog.LevelError,
			"reminder sweep failed",
			slog.String("error", err.Error()))
		return 0
	}

	reminded := 0
	for _, a := range stale {
		if err := rs.Store.TouchReminder(ctx, a.ID, now); err != nil {
			rs.Log.LogAttrs(ctx, slog.LevelError,
				"failed to stamp reminder",
				slog.String("agent_id", a.ID),
				slog.String("error", err.Error()))
			continue
		}
		rs.Log.LogAttrs(ctx, slog.LevelInfo,
			"invite reminder due",
			slog.String("agent_id", a.ID),
			slog.String("agent", a.FullName()))
		reminded++
	}

	if reminded > 0 {
		rs.Log.LogAttrs(ctx, slog.LevelInfo,
			"reminder sweep completed",
			slog.Int("reminded", reminded))
	}
	return reminded
}
