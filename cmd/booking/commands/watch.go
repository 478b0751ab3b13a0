package commands

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/metrics"
	"github.com/beetlebot/booking-cli/internal/output"
	"github.com/beetlebot/booking-cli/internal/scheduler"
)

func WatchCmd() *cobra.Command {
	var (
		req         core.CalendarRequest
		spec        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate the booking day for a route on a cron schedule",
		Example: `  booking watch --from YUL --to CDG --cron "0 8 * * *"
  booking watch --from JFK --to LAX --cron "*/30 * * * *" --metrics-addr :9102`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.From == "" || req.To == "" {
				return cmd.Help()
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.WithTolerance(toleranceFlag(cmd))
			log := newLogger(cfg)

			if spec == "" {
				spec = cfg.Watch.Cron
			}
			if metricsAddr == "" {
				metricsAddr = cfg.Watch.MetricsAddr
			}
			if req.Days == 0 {
				req.Days = cfg.Booking.WindowDays
			}
			if req.Adults == 0 {
				req.Adults = cfg.Booking.Adults
			}
			if req.CabinClass == "" {
				req.CabinClass = cfg.Booking.CabinClass
			}

			store, err := openHistory(cfg, log, false)
			if err != nil {
				return err
			}
			defer store.Close()

			if metricsAddr != "" {
				srv := metrics.Serve(metricsAddr)
				defer srv.Close()
				log.Info().Str("addr", metricsAddr).Msg("metrics up")
			}

			ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// the window rolls forward with each run, so caching would pin old days
			orch := buildOrchestrator(cfg, log, false)
			w := scheduler.NewWatcher(ctx, orch, store, log, req, cfg.Booking.Tolerance)
			w.OnResult(func(r *core.CalendarResult) {
				_ = output.JSONCompact(r.Recommendation)
			})
			if err := w.Register(spec); err != nil {
				return err
			}

			if _, err := w.RunNow(); err != nil {
				log.Error().Err(err).Msg("initial evaluation failed")
			}

			w.Start()
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&req.From, "from", "", "Origin airport code (required)")
	cmd.Flags().StringVar(&req.To, "to", "", "Destination airport code (required)")
	cmd.Flags().IntVar(&req.Days, "days", 0, "Days in the rolling window (default from config, 30)")
	cmd.Flags().IntVar(&req.Adults, "adults", 0, "Number of adults (default from config)")
	cmd.Flags().StringVar(&req.CabinClass, "cabin", "", "Cabin class: economy, premium_economy, business, first")
	cmd.Flags().Float64("tolerance", core.DefaultTolerance, "Accepted markup over the cheapest day (0.10 = 10%)")
	cmd.Flags().StringVar(&spec, "cron", "", `Cron schedule, five fields (default from config, "0 8 * * *")`)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}
