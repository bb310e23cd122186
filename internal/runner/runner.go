// Package runner executes due recurring events and advances their next run
// date.
package runner

import (
	"context"
	"fmt"
	"time"

	"cloudeng.io/errors"
	"github.com/robfig/cron/v3"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jalali"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
	"jalaliflow/internal/schedule"
	"jalaliflow/internal/store"
)

// Runner loads due events from a store and runs them through an Executor.
type Runner struct {
	store   store.Store
	exec    *Executor
	metrics *Metrics
	loc     *time.Location
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records run metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New returns a runner whose "today" is evaluated in loc.
func New(s store.Store, exec *Executor, loc *time.Location, opts ...Option) *Runner {
	if loc == nil {
		loc = time.Local
	}
	r := &Runner{store: s, exec: exec, loc: loc, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Report summarizes one run.
type Report struct {
	Today    string
	Executed []string
	Failed   []string
}

// Today is the Jalali date of the runner clock in its location.
func (r *Runner) Today() caldate.Date {
	return jalali.FromTime(r.now().In(r.loc))
}

// RunDue runs every event whose next run is on or before today. A failing
// event is reported and keeps its next run; the others still run. The
// returned error aggregates all per-event failures.
func (r *Runner) RunDue(ctx context.Context, today caldate.Date) (Report, error) {
	started := r.now()
	rep := Report{Today: today.JalaliString()}

	events, err := r.store.Due(ctx, rep.Today)
	if err != nil {
		return rep, fmt.Errorf("runner: load due events: %w", err)
	}
	if len(events) == 0 {
		appLog.Info("runner: no events scheduled", "today", rep.Today)
	}

	errs := errors.M{}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			errs.Append(err)
			break
		}
		if stage, err := r.runOne(ctx, ev); err != nil {
			appLog.Error("runner: event failed", err, "id", ev.ID, "name", ev.Name, "stage", stage)
			rep.Failed = append(rep.Failed, ev.Name)
			errs.Append(fmt.Errorf("event %q (%s): %w", ev.Name, ev.ID, err))
			if r.metrics != nil {
				r.metrics.EventsFailed.WithLabelValues(stage).Inc()
			}
			continue
		}
		appLog.Info("runner: event executed", "id", ev.ID, "name", ev.Name)
		rep.Executed = append(rep.Executed, ev.Name)
		if r.metrics != nil {
			r.metrics.EventsExecuted.Inc()
		}
	}

	if r.metrics != nil {
		r.metrics.LastRun.Set(float64(r.now().Unix()))
		r.metrics.RunDuration.Observe(r.now().Sub(started).Seconds())
	}
	return rep, errs.Err()
}

// runOne returns the failing stage along with the error.
func (r *Runner) runOne(ctx context.Context, ev model.RecurringEvent) (string, error) {
	cur, err := jalali.Parse(ev.NextRun)
	if err != nil {
		return "schedule", err
	}
	next, err := schedule.NextRunDate(cur, ev.Frequency)
	if err != nil {
		return "schedule", err
	}
	if err := r.exec.Execute(ctx, ev); err != nil {
		return "action", err
	}
	if err := r.store.UpdateNextRun(ctx, ev.ID, next.JalaliString()); err != nil {
		return "store", err
	}
	return "", nil
}

// RunToday runs the events due on the runner's current date.
func (r *Runner) RunToday(ctx context.Context) (Report, error) {
	return r.RunDue(ctx, r.Today())
}

// Serve runs RunToday on the cron schedule spec, evaluated in the runner's
// location, until ctx is canceled. Overlapping runs are skipped.
func (r *Runner) Serve(ctx context.Context, spec string) error {
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		rep, err := r.RunToday(ctx)
		if err != nil {
			appLog.Error("runner: scheduled run finished with errors", err,
				"today", rep.Today, "executed", len(rep.Executed), "failed", len(rep.Failed))
			return
		}
		appLog.Info("runner: scheduled run finished", "today", rep.Today, "executed", len(rep.Executed))
	}); err != nil {
		return fmt.Errorf("runner: invalid cron spec %q: %w", spec, err)
	}

	appLog.Info("runner: daemon started", "cron", spec, "timezone", r.loc.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("runner: daemon stopped")
	return nil
}
