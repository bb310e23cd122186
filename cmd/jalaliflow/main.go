package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jalaliflow/internal/config"
	"jalaliflow/internal/flow"
	"jalaliflow/internal/holiday"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/store"
)

const version = "0.1.0"

// app is the state shared by all subcommands once the config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	reg        *holiday.Registry
	flow       *flow.Flow
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "jalaliflow",
		Short:         "Jalali calendar conversions, holidays and recurring events",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "Path to config file")

	root.AddCommand(
		newConvertCommand(a),
		newFormatCommand(a),
		newRelativeCommand(a),
		newAddCommand(a, "add", 1),
		newAddCommand(a, "sub", -1),
		newDiffCommand(a),
		newHolidaysCommand(a),
		newWorkingDayCommand(a),
		newEventsCommand(a),
		newRunEventsCommand(a),
		newMigrateCommand(a),
		newServeCommand(a),
	)
	return root
}

func defaultConfigPath() string {
	if v := os.Getenv("JALALIFLOW_CONFIG"); v != "" {
		return v
	}
	return "jalaliflow.yaml"
}

// load reads the config, applies logging settings and seeds the holiday
// registry from custom_holidays.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", a.configPath, err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	appLog.SetFormat(cfg.LogFormat)

	a.cfg = cfg
	a.reg = holiday.NewRegistry()
	for date, desc := range cfg.CustomHolidays {
		if err := a.reg.AddCustomHoliday(date, desc); err != nil {
			appLog.Error("ignoring custom holiday from config", err, "date", date)
		}
	}
	a.flow = flow.New(flow.FromConfig(cfg), a.reg)

	appLog.Debug("effective config",
		"config_path", a.configPath,
		"timezone", cfg.Timezone,
		"lang", cfg.Lang,
		"store_driver", cfg.Store.Driver,
		"holiday_feeds", len(cfg.HolidayFeeds),
		"custom_holidays", len(cfg.CustomHolidays),
	)
	return nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, a.cfg.Store)
}
