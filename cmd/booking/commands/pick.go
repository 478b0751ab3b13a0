package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/config"
	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/history"
	"github.com/beetlebot/booking-cli/internal/output"
	"github.com/beetlebot/booking-cli/internal/pricefile"
)

type PickResult struct {
	Prices         []float64            `json:"prices"`
	Dates          []string             `json:"dates,omitempty"`
	Exact          bool                 `json:"exact,omitempty"`
	Recommendation *core.Recommendation `json:"recommendation"`
}

func PickCmd() *cobra.Command {
	var (
		pricesArg string
		file      string
		exact     bool
		format    string
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick the booking day from a list of daily prices",
		Example: `  booking pick --prices 1000,950,900,1100,850
  booking pick --file prices.csv --tolerance 0.05 --format text
  booking pick --file prices.json --exact --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pricesArg == "" && file == "" {
				return cmd.Help()
			}
			if pricesArg != "" && file != "" {
				return fmt.Errorf("use either --prices or --file, not both")
			}
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown --format %q (want json or text)", format)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.WithTolerance(toleranceFlag(cmd))
			log := newLogger(cfg)

			var series *pricefile.Series
			if file != "" {
				series, err = pricefile.Load(file)
			} else {
				series, err = pricefile.ParseList(pricesArg)
			}
			if err != nil {
				output.JSONError("invalid prices", err.Error())
				return nil
			}

			var rec *core.Recommendation
			if exact {
				rec, err = core.RecommendDecimal(series.Prices, decimal.NewFromFloat(cfg.Booking.Tolerance))
			} else {
				rec, err = core.Recommend(series.Floats(), cfg.Booking.Tolerance)
			}
			if err != nil {
				output.JSONError("selection failed", err.Error())
				return nil
			}
			if len(series.Dates) == series.Len() {
				rec.Date = series.Dates[rec.Day]
			}
			log.Debug().Int("days", series.Len()).Int("day", rec.Day).Bool("fallback", rec.Fallback).Msg("booking day picked")

			if record {
				if err := recordPick(cmd.Context(), cfg, series, rec); err != nil {
					log.Error().Err(err).Msg("record recommendation")
				}
			}

			if format == "text" {
				return output.Text(series.Floats(), rec)
			}
			return output.JSON(PickResult{
				Prices:         series.Floats(),
				Dates:          series.Dates,
				Exact:          exact,
				Recommendation: rec,
			})
		},
	}

	cmd.Flags().StringVar(&pricesArg, "prices", "", "Comma separated daily prices, earliest first")
	cmd.Flags().StringVar(&file, "file", "", "Price file (.csv, .json, .yaml, .txt)")
	cmd.Flags().Float64("tolerance", core.DefaultTolerance, "Accepted markup over the cheapest day (0.10 = 10%)")
	cmd.Flags().BoolVar(&exact, "exact", false, "Use exact decimal arithmetic for the threshold")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, text")
	cmd.Flags().BoolVar(&record, "record", false, "Store the recommendation in the history database")

	return cmd
}

func recordPick(ctx context.Context, cfg *config.Config, series *pricefile.Series, rec *core.Recommendation) error {
	store, err := openHistory(cfg, newLogger(cfg), true)
	if err != nil {
		return err
	}
	defer store.Close()

	source := "prices"
	startDate := ""
	if len(series.Dates) > 0 {
		source = "file"
		startDate = series.Dates[0]
	}
	return store.Record(ctx, history.NewEntry(source, "", startDate, series.Floats(), rec))
}
