package commands

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/adapters/live"
	"github.com/beetlebot/booking-cli/internal/adapters/mock"
	"github.com/beetlebot/booking-cli/internal/cache"
	"github.com/beetlebot/booking-cli/internal/config"
	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/history"
	"github.com/beetlebot/booking-cli/internal/util"
)

// loadConfig applies the persistent --config, --mode and --log-level flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	cfg.WithMode(modeFlag)
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// toleranceFlag returns the --tolerance value only when it was set explicitly.
func toleranceFlag(cmd *cobra.Command) *float64 {
	if !cmd.Flags().Changed("tolerance") {
		return nil
	}
	tol, err := cmd.Flags().GetFloat64("tolerance")
	if err != nil {
		return nil
	}
	return &tol
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return util.NewLogger(cfg.LogLevel)
}

func buildRouter(cfg *config.Config, log zerolog.Logger) *core.Router {
	router := core.NewRouter(cfg)

	router.Register(mock.NewCalendarAdapter())
	router.Register(live.NewDuffelCalendarAdapter().
		WithConcurrency(cfg.Fetch.Concurrency).
		WithLogger(log.With().Str("provider", "duffel").Logger()))

	return router
}

func buildOrchestrator(cfg *config.Config, log zerolog.Logger, useCache bool) *core.Orchestrator {
	orch := core.NewOrchestrator(buildRouter(cfg, log), log).
		WithTimeout(cfg.Fetch.Timeout, cfg.Fetch.DayTimeout)
	if !useCache {
		return orch
	}

	var (
		c   *cache.FileCache
		err error
	)
	if cfg.Cache.Dir != "" {
		c, err = cache.NewAt(cfg.Cache.Dir)
	} else {
		c, err = cache.New()
	}
	if err != nil {
		log.Warn().Err(err).Msg("calendar cache disabled")
		return orch
	}
	return orch.WithCache(c, cfg.Cache.TTL)
}

// openHistory returns a SQLite store when history.path is set. With
// required=true and no path, the default location is used.
func openHistory(cfg *config.Config, log zerolog.Logger, required bool) (history.Store, error) {
	path := cfg.History.Path
	if path == "" {
		if !required {
			return history.NewNoopStore(), nil
		}
		path = filepath.Join(config.DefaultDataDir(), "history.db")
	}
	return history.OpenSQLite(path, log)
}
