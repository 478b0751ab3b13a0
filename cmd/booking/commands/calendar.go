package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/history"
	"github.com/beetlebot/booking-cli/internal/output"
)

func CalendarCmd() *cobra.Command {
	var (
		req     core.CalendarRequest
		noCache bool
		record  bool
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Fetch a daily fare calendar for a route and pick the booking day",
		Example: `  booking calendar --from YUL --to CDG
  booking calendar --from JFK --to LAX --start 2026-07-01 --days 14 --tolerance 0.05 --mode live`,
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

			if req.StartDate == "" {
				req.StartDate = time.Now().Format("2006-01-02")
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

			orch := buildOrchestrator(cfg, log, !noCache)
			result, err := orch.Recommend(cmd.Context(), req, cfg.Booking.Tolerance)
			if err != nil {
				output.JSONError("calendar failed", err.Error())
				return nil
			}

			if record {
				store, err := openHistory(cfg, log, true)
				if err != nil {
					log.Error().Err(err).Msg("open history")
				} else {
					defer store.Close()
					source := "calendar"
					if len(result.Providers) > 0 {
						source = result.Providers[0]
					}
					entry := history.NewEntry(source, req.From+"-"+req.To, req.StartDate, result.Prices, result.Recommendation)
					if err := store.Record(cmd.Context(), entry); err != nil {
						log.Error().Err(err).Msg("record recommendation")
					}
				}
			}
			return output.JSON(result)
		},
	}

	cmd.Flags().StringVar(&req.From, "from", "", "Origin airport code (required)")
	cmd.Flags().StringVar(&req.To, "to", "", "Destination airport code (required)")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "First departure day YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&req.Days, "days", 0, "Days in the window (default from config, 30)")
	cmd.Flags().IntVar(&req.Adults, "adults", 0, "Number of adults (default from config)")
	cmd.Flags().StringVar(&req.CabinClass, "cabin", "", "Cabin class: economy, premium_economy, business, first")
	cmd.Flags().Float64("tolerance", core.DefaultTolerance, "Accepted markup over the cheapest day (0.10 = 10%)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the calendar cache")
	cmd.Flags().BoolVar(&record, "record", false, "Store the recommendation in the history database")

	return cmd
}
