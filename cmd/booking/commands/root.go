package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

// Root assembles the booking command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "booking",
		Short:         "Beetlebot booking-day picker – when to buy a flight",
		Long:          "Picks the earliest day whose fare is within a tolerance of the cheapest fare in the window, trading a small premium for not waiting.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("mode", "", "Provider mode: mock, live, hybrid (default from config/env)")
	root.PersistentFlags().String("config", "", "Config file (default $BOOKING_CONFIG or ~/.config/beetlebot/booking.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(PickCmd())
	root.AddCommand(CalendarCmd())
	root.AddCommand(WatchCmd())
	root.AddCommand(HistoryCmd())
	root.AddCommand(ProvidersCmd())
	root.AddCommand(DoctorCmd())
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print booking CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "booking "+version)
		},
	}
}
