package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/core"
	"github.com/beetlebot/booking-cli/internal/output"
)

func DoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, credentials, and provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				output.JSONError("invalid configuration", err.Error())
				return nil
			}

			router := buildRouter(cfg, newLogger(cfg))
			infos := router.ProviderInfos()
			active := len(router.ActiveAdapters())

			var issues []string
			for _, p := range infos {
				if p.Status == "no_credentials" {
					missing := cfg.MissingCredentials(p.Name)
					if len(missing) == 0 {
						issues = append(issues, fmt.Sprintf("%s: %s", p.Name, p.Reason))
					} else {
						issues = append(issues, fmt.Sprintf("%s: missing %s", p.Name, strings.Join(missing, ", ")))
					}
				}
			}
			if cfg.Booking.Tolerance < 0 {
				issues = append(issues, "booking.tolerance is negative: only the cheapest day can be recommended")
			}

			historyPath := cfg.History.Path
			if historyPath == "" {
				historyPath = "disabled"
			}

			summary := fmt.Sprintf("%d/%d providers active (mode=%s, tolerance=%.2f, window=%dd)",
				active, len(infos), cfg.Mode, cfg.Booking.Tolerance, cfg.Booking.WindowDays)
			if len(issues) > 0 {
				summary += " | issues: " + strings.Join(issues, "; ")
			}

			return output.JSON(core.DoctorReport{
				Mode:      cfg.Mode,
				Tolerance: cfg.Booking.Tolerance,
				Window:    cfg.Booking.WindowDays,
				History:   historyPath,
				Providers: infos,
				Healthy:   active > 0,
				Summary:   summary,
			})
		},
	}
	return cmd
}
