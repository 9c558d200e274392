package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetmate/internal/core"

	"github.com/robfig/cron/v3"
)

// HousekeepingConfig holds the cron schedules of the periodic jobs.
type HousekeepingConfig struct {
	// PurgeSchedule drives the expired-session purge (default: @hourly)
	PurgeSchedule string

	// MonthOpenSchedule creates next month's zero budgets (default: 00:05 on day 1)
	MonthOpenSchedule string
}

func DefaultHousekeepingConfig() HousekeepingConfig {
	return HousekeepingConfig{
		PurgeSchedule:     "@hourly",
		MonthOpenSchedule: "5 0 1 * *",
	}
}

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type MonthOpener interface {
	OpenMonth(ctx context.Context, month core.Month) (int64, error)
}

// HousekeepingProcessor runs the periodic maintenance jobs on a cron
// scheduler.
type HousekeepingProcessor struct {
	sessions SessionPurger
	budgets  MonthOpener
	config   HousekeepingConfig
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

func NewHousekeepingProcessor(sessions SessionPurger, budgets MonthOpener, config HousekeepingConfig) *HousekeepingProcessor {
	return &HousekeepingProcessor{
		sessions: sessions,
		budgets:  budgets,
		config:   config,
		now:      time.Now,
	}
}

// Start runs both jobs once and then schedules them. Returns an error if
// already running or if a schedule does not parse.
func (p *HousekeepingProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("housekeeping processor is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(p.config.PurgeSchedule, func() { p.runPurge(ctx) }); err != nil {
		return fmt.Errorf("schedule session purge %q: %w", p.config.PurgeSchedule, err)
	}
	if _, err := c.AddFunc(p.config.MonthOpenSchedule, func() { p.runMonthOpen(ctx) }); err != nil {
		return fmt.Errorf("schedule month open %q: %w", p.config.MonthOpenSchedule, err)
	}

	// catch up on anything missed while stopped
	p.runPurge(ctx)
	p.runMonthOpen(ctx)

	c.Start()
	p.cron = c
	p.running = true

	slog.InfoContext(ctx, "Housekeeping processor started",
		"purge_schedule", p.config.PurgeSchedule,
		"month_open_schedule", p.config.MonthOpenSchedule)
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (p *HousekeepingProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	c := p.cron
	p.running = false
	p.cron = nil
	p.mu.Unlock()

	select {
	case <-c.Stop().Done():
		slog.InfoContext(ctx, "Housekeeping processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Housekeeping processor stop timed out")
		return ctx.Err()
	}
}

func (p *HousekeepingProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// PurgeSessions deletes every session expired at the current time.
func (p *HousekeepingProcessor) PurgeSessions(ctx context.Context) (int64, error) {
	n, err := p.sessions.PurgeExpiredSessions(ctx, p.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// OpenCurrentMonth creates the current month's budget row for every user.
func (p *HousekeepingProcessor) OpenCurrentMonth(ctx context.Context) (int64, error) {
	return p.budgets.OpenMonth(ctx, core.CurrentMonth(p.now()))
}

func (p *HousekeepingProcessor) runPurge(ctx context.Context) {
	n, err := p.PurgeSessions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Session purge failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
}

func (p *HousekeepingProcessor) runMonthOpen(ctx context.Context) {
	n, err := p.OpenCurrentMonth(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Month open failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Month opened", "month", core.CurrentMonth(p.now()).String(), "created", n)
}
