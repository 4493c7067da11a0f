// Package agent is the background process behind the UI: it owns the
// offline cache interception and the recurring reminder check. It runs for
// the lifetime of the service, independent of any connected client.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alvasen/sophamtning-ale/internal/cache"
	"github.com/alvasen/sophamtning-ale/internal/clock"
	"github.com/alvasen/sophamtning-ale/internal/i18n"
	"github.com/alvasen/sophamtning-ale/internal/notify"
)

// Reminder slots: the evening check announces tomorrow's collection, the
// morning check announces today's.
const (
	MorningHour = 6
	EveningHour = 18

	// DefaultCheckInterval is how often the armed timer re-checks.
	DefaultCheckInterval = time.Hour

	// flagTTL bounds dedup flag growth; slots are only two per day.
	flagTTL = 7 * 24 * time.Hour

	notificationIcon = "/icons/icon-192.png"
)

// ErrNotGranted is returned by Arm when notification permission is not
// granted.
var ErrNotGranted = errors.New("agent: notification permission not granted")

// Agent runs the reminder state machine.
type Agent struct {
	bucket      *cache.Bucket
	registry    *Registry
	notifier    notify.Notifier
	permissions *notify.Permissions
	clock       clock.Clock

	// scheduleKeyPrefix identifies cached schedule responses; a reminder is
	// only sent when at least one such entry exists.
	scheduleKeyPrefix string

	interval time.Duration
	armed    atomic.Bool
}

// Options configures an Agent.
type Options struct {
	Bucket            *cache.Bucket
	Registry          *Registry
	Notifier          notify.Notifier
	Permissions       *notify.Permissions
	Clock             clock.Clock
	ScheduleKeyPrefix string
	CheckInterval     time.Duration
}

func New(opts Options) *Agent {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	return &Agent{
		bucket:            opts.Bucket,
		registry:          opts.Registry,
		notifier:          opts.Notifier,
		permissions:       opts.Permissions,
		clock:             opts.Clock,
		scheduleKeyPrefix: opts.ScheduleKeyPrefix,
		interval:          opts.CheckInterval,
	}
}

// Registry exposes the client registry for the heartbeat endpoint.
func (a *Agent) Registry() *Registry { return a.registry }

// Permissions exposes the permission store for the web layer.
func (a *Agent) Permissions() *notify.Permissions { return a.permissions }

// Armed reports whether the recurring check is running.
func (a *Agent) Armed() bool { return a.armed.Load() }

/// Arm starts the recurring reminder check: one immediate check, then one
// per interval until ctx is cancelled. Arming is idempotent; a second call
// reports started=false and leaves the running timer alone. Arming requires
// granted notification permission.
func (a *Agent) Arm(ctx context.Context) (started bool, err error) {
	state, err := a.permissions.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("agent: reading permission: %w", err)
	}
	if state != notify.PermissionGranted {
		return false, ErrNotGranted
	}

	if !a.armed.CompareAndSwap(false, true) {
		return false, nil
	}

	slog.Info("agent: reminder timer armed", "interval", a.interval)
	go a.run(ctx)
	return true, nil
}

func (a *Agent) run(ctx context.Context) {
	a.Check(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("agent: reminder timer stopped")
			return
		case <-ticker.C:
			a.Check(ctx)
		}
	}
}

// Check runs one reminder evaluation. Every failure is swallowed after
// logging: the agent has no UI to report to and the timer must survive.
func (a *Agent) Check(ctx context.Context) {
	now := a.clock.Now()
	hour := now.Hour()
	if hour != MorningHour && hour != EveningHour {
		return
	}

	dedupKey := fmt.Sprintf("%s-%d", now.Format("2006-01-02"), hour)
	notified, err := a.bucket.HasFlag(ctx, dedupKey)
	if err != nil {
		slog.Warn("agent: reading dedup flag", "key", dedupKey, "error", err)
		return
	}
	if notified {
		return
	}

	if a.registry.ActiveCount(now) == 0 {
		return
	}

	hasSchedule, err := a.bucket.HasAny(ctx, a.scheduleKeyPrefix)
	if err != nil {
		slog.Warn("agent: checking cached schedule", "error", err)
		return
	}
	if !hasSchedule {
		return
	}

	// Flag first: at most one reminder per date+slot even if the send fails.
	if err := a.bucket.SetFlag(ctx, dedupKey, flagTTL); err != nil {
		slog.Warn("agent: persisting dedup flag", "key", dedupKey, "error", err)
		return
	}

	if err := a.notifier.Send(ctx, a.reminder(now, hour)); err != nil {
		slog.Warn("agent: sending reminder", "slot", dedupKey, "error", err)
		return
	}
	slog.Info("agent: reminder sent", "slot", dedupKey)
}

func (a *Agent) reminder(now time.Time, hour int) notify.Notification {
	loc := i18n.Default()
	if hour == EveningHour {
		tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
		return notify.Notification{
			Title: i18n.T(loc, i18n.MsgReminderEveningTitle, nil),
			Body:  i18n.T(loc, i18n.MsgReminderEveningBody, nil),
			Icon:  notificationIcon,
			Tag:   "reminder-" + tomorrow,
			URL:   "/",
		}
	}
	today := now.Format("2006-01-02")
	return notify.Notification{
		Title: i18n.T(loc, i18n.MsgReminderMorningTitle, nil),
		Body:  i18n.T(loc, i18n.MsgReminderMorningBody, nil),
		Icon:  notificationIcon,
		Tag:   "reminder-" + today,
		URL:   "/",
	}
}
