package commands

import (
	"github.com/spf13/cobra"

	"github.com/beetlebot/booking-cli/internal/output"
)

func ProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List and inspect fare calendar providers",
	}
	cmd.AddCommand(providersListCmd())
	return cmd
}

func providersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered providers and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return output.JSON(buildRouter(cfg, newLogger(cfg)).ProviderInfos())
		},
	}
	return cmd
}
