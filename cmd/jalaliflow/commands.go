package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"jalaliflow/internal/holiday"
	"jalaliflow/internal/ics"
	"jalaliflow/internal/jalali"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
	"jalaliflow/internal/runner"
	"jalaliflow/internal/schedule"
	"jalaliflow/internal/store"
	"jalaliflow/internal/web"
)

func newConvertCommand(a *app) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert dates between calendars",
	}

	var spec string
	toJalali := &cobra.Command{
		Use:   "to-jalali YYYY-MM-DD",
		Short: "Convert a Gregorian date to Jalali",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.flow.ToJalali(args[0], spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	toJalali.Flags().StringVarP(&spec, "format", "f", "", "Output format (defaults to date_format)")

	convertCmd.AddCommand(toJalali,
		&cobra.Command{
			Use:   "to-gregorian YYYY/MM/DD",
			Short: "Convert a Jalali date to Gregorian",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := a.flow.ToGregorian(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			},
		},
		&cobra.Command{
			Use:   "to-hijri YYYY-MM-DD",
			Short: "Convert a Gregorian date to the tabular Hijri calendar",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := a.flow.ToHijri(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			},
		},
	)
	return convertCmd
}

func newFormatCommand(a *app) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "format [YYYY/MM/DD]",
		Short: "Format a Jalali date, or the current time when no date is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				out string
				err error
			)
			if len(args) == 0 {
				out, err = a.flow.FormatNow(spec)
			} else {
				out, err = a.flow.FormatDate(args[0], spec)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&spec, "format", "f", "", "Format string (defaults to date_format)")
	return cmd
}

func newRelativeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relative YYYY/MM/DD",
		Short: "Describe a Jalali date relative to today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.flow.ToRelative(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// newAddCommand builds "add" (sign 1) and "sub" (sign -1).
func newAddCommand(a *app, use string, sign int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " YYYY/MM/DD N day|week|month|year",
		Short: "Shift a Jalali date by N units",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q", args[1])
			}
			out, err := a.flow.Add(args[0], sign*n, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newDiffCommand(a *app) *cobra.Command {
	var unit string
	cmd := &cobra.Command{
		Use:   "diff START END",
		Short: "Distance between two Jalali dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.flow.Diff(args[0], args[1], unit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'f', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringVarP(&unit, "unit", "u", "day", "day, week, month or year")
	return cmd
}

func newWorkingDayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "working-day YYYY/MM/DD",
		Short: "Report whether a Jalali date is a working day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := jalali.Parse(args[0]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if desc, ok := a.reg.Describe(args[0]); ok {
				fmt.Fprintf(out, "holiday: %s\n", desc)
				return nil
			}
			if a.flow.IsWorkingDay(args[0]) {
				fmt.Fprintln(out, "working day")
				return nil
			}
			fmt.Fprintln(out, "weekend")
			return nil
		},
	}
}

func newHolidaysCommand(a *app) *cobra.Command {
	var asICS, islamic, feeds bool
	cmd := &cobra.Command{
		Use:   "holidays [YEAR]",
		Short: "List the holidays of a Jalali year",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := a.yearArg(args)
			if err != nil {
				return err
			}
			if feeds {
				if err := a.syncFeeds(cmd.Context(), year); err != nil {
					appLog.Error("holiday feeds imported with errors", err)
				}
			}
			entries := a.reg.Holidays(year)
			if islamic {
				more, err := holiday.IslamicHolidays(year)
				if err != nil {
					return err
				}
				entries = append(entries, more...)
			}
			if asICS {
				body, err := ics.ExportHolidays(year, entries, time.Now().UTC())
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), body)
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				g, _ := jalali.ToGregorian(e.Date.Year, e.Date.Month, e.Date.Day)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.JalaliString(), g.GregorianString(), e.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asICS, "ics", false, "Print an iCalendar document instead of a table")
	cmd.Flags().BoolVar(&islamic, "islamic", false, "Include tabular Islamic holidays")
	cmd.Flags().BoolVar(&feeds, "feeds", false, "Import the configured holiday feeds first")
	return cmd
}

func (a *app) yearArg(args []string) (int, error) {
	if len(args) == 0 {
		today, err := a.flow.Today()
		if err != nil {
			return 0, err
		}
		return today.Year, nil
	}
	year, err := strconv.Atoi(args[0])
	if err != nil || !jalali.Validate(year, 1, 1) {
		return 0, fmt.Errorf("invalid jalali year %q", args[0])
	}
	return year, nil
}

// syncFeeds imports the configured holiday feeds for the given years.
func (a *app) syncFeeds(ctx context.Context, years ...int) error {
	sources := ics.SourcesFromConfig(a.cfg.HolidayFeeds)
	if len(sources) == 0 {
		return nil
	}
	loc, err := a.flow.Location()
	if err != nil {
		return err
	}
	n, err := ics.SyncFeeds(ctx, ics.NewFetcher(nil, a.cfg.FeedCacheDir), sources, a.reg, loc, years...)
	appLog.Info("holiday feeds synced", "feeds", len(sources), "added", n)
	return err
}

func newEventsCommand(a *app) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Manage recurring events",
	}

	var (
		name, frequency, start, invoke, inline string
		invokeArgs                             []string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new recurring event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			freq, err := schedule.ParseFrequency(frequency)
			if err != nil {
				return err
			}
			action, err := actionFromFlags(invoke, invokeArgs, inline)
			if err != nil {
				return err
			}
			if start == "" {
				today, err := a.flow.Today()
				if err != nil {
					return err
				}
				start = today.JalaliString()
			}
			ev := &model.RecurringEvent{
				Name:      name,
				Frequency: freq,
				StartDate: start,
				NextRun:   start,
				Action:    action,
			}
			return a.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Create(cmd.Context(), ev); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ev.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Event name")
	addCmd.Flags().StringVar(&frequency, "frequency", "", "daily, weekly, monthly or yearly")
	addCmd.Flags().StringVar(&start, "start", "", "First run date YYYY/MM/DD (defaults to today)")
	addCmd.Flags().StringVar(&invoke, "invoke", "", "Handler to call, as target.method")
	addCmd.Flags().StringArrayVar(&invokeArgs, "arg", nil, "Handler argument (repeatable)")
	addCmd.Flags().StringVar(&inline, "inline", "", "Inline payload instead of a handler")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("frequency")
	addCmd.MarkFlagsMutuallyExclusive("invoke", "inline")

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(st store.Store) error {
				events, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(events)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tFREQUENCY\tNEXT RUN\tACTION")
				for _, ev := range events {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Name, ev.Frequency, ev.NextRun, ev.Action)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	var count int
	upcomingCmd := &cobra.Command{
		Use:   "upcoming ID",
		Short: "List the next run dates of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st store.Store) error {
				ev, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				from, err := jalali.Parse(ev.NextRun)
				if err != nil {
					return err
				}
				runs, err := schedule.Upcoming(from, ev.Frequency, count)
				if err != nil {
					return err
				}
				for _, d := range runs {
					fmt.Fprintln(cmd.OutOrStdout(), d.JalaliString())
				}
				return nil
			})
		},
	}
	upcomingCmd.Flags().IntVarP(&count, "count", "n", 5, "Number of run dates")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st store.Store) error {
				return st.Delete(cmd.Context(), args[0])
			})
		},
	}

	eventsCmd.AddCommand(addCmd, listCmd, upcomingCmd, deleteCmd)
	return eventsCmd
}

func actionFromFlags(invoke string, args []string, inline string) (model.Action, error) {
	if inline != "" {
		return model.Inline([]byte(inline)), nil
	}
	target, method, ok := strings.Cut(invoke, ".")
	if !ok || target == "" || method == "" {
		return model.Action{}, fmt.Errorf("--invoke must be target.method, got %q", invoke)
	}
	return model.Invoke(target, method, args...), nil
}

func (a *app) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (a *app) newRunner(st store.Store, reg prometheus.Registerer) (*runner.Runner, error) {
	loc, err := a.flow.Location()
	if err != nil {
		return nil, err
	}
	exec := runner.NewExecutor()
	runner.RegisterBuiltins(exec, nil)
	return runner.New(st, exec, loc, runner.WithMetrics(runner.NewMetrics(reg))), nil
}

func newRunEventsCommand(a *app) *cobra.Command {
	var (
		daemon bool
		date   string
	)
	cmd := &cobra.Command{
		Use:   "run-events",
		Short: "Run events that are due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(st store.Store) error {
				r, err := a.newRunner(st, nil)
				if err != nil {
					return err
				}
				if daemon {
					return r.Serve(ctx, a.cfg.RunCron)
				}
				today := r.Today()
				if date != "" {
					if today, err = jalali.Parse(date); err != nil {
						return err
					}
				}
				rep, err := r.RunDue(ctx, today)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d executed, %d failed\n", rep.Today, len(rep.Executed), len(rep.Failed))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Keep running on the run_cron schedule")
	cmd.Flags().StringVar(&date, "date", "", "Treat this Jalali date as today")
	return cmd
}

func newMigrateCommand(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the MySQL schema of the event store (up, down, version)",
	}

	withSQL := func(fn func(*store.SQLStore) error) error {
		if a.cfg.Store.Driver != "mysql" {
			return errors.New("migrate requires store.driver mysql")
		}
		s, err := store.OpenMySQL(a.cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(s)
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all up migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSQL(func(s *store.SQLStore) error { return store.Migrate(s.DB()) })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSQL(func(s *store.SQLStore) error { return store.MigrateDown(s.DB()) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSQL(func(s *store.SQLStore) error {
					v, dirty, err := store.MigrationVersion(s.DB())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
					return nil
				})
			},
		},
	)
	return migrateCmd
}

func newServeCommand(a *app) *cobra.Command {
	var (
		listen   string
		noRunner bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run due events on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if listen != "" {
				a.cfg.Listen = listen
			}

			today, err := a.flow.Today()
			if err != nil {
				return err
			}
			if err := a.syncFeeds(ctx, today.Year, today.Year+1); err != nil {
				appLog.Error("holiday feeds imported with errors", err)
			}

			return a.withStore(ctx, func(st store.Store) error {
				reg := prometheus.NewRegistry()
				r, err := a.newRunner(st, reg)
				if err != nil {
					return err
				}

				ctx, cancel := context.WithCancel(ctx)
				defer cancel()

				runnerDone := make(chan error, 1)
				if noRunner {
					runnerDone <- nil
				} else {
					go func() { runnerDone <- r.Serve(ctx, a.cfg.RunCron) }()
				}

				srv := web.NewServer(a.cfg, a.flow, st, reg)
				err = web.StartServer(ctx, srv)
				cancel()
				if rerr := <-runnerDone; err == nil {
					err = rerr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&noRunner, "no-runner", false, "Do not run due events")
	return cmd
}
