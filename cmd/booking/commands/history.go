package commands

import (
	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/output"
)

func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded booking recommendations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			store, err := openHistory(cfg, log, true)
			if err != nil {
				output.JSONError("history unavailable", err.Error())
				return nil
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				output.JSONError("history query failed", err.Error())
				return nil
			}
			return output.JSON(entries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	return cmd
}
