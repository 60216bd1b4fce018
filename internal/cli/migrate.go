package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/config"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "migrate the default store, the platform and every provisioned tenant database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, config.Load())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.migrate(); err != nil {
				return err
			}

			clients, err := (&repo.PlatformRepo{DB: a.platform}).ListClients(ctx)
			if err != nil {
				return fmt.Errorf("list clients: %w", err)
			}
			// Open migrates the tenant schema on first use.
			for _, c := range clients {
				if _, err := a.registry.Open(ctx, c.ClientID); err != nil {
					return fmt.Errorf("migrate tenant %s: %w", c.ClientID, err)
				}
				a.logger.Info("tenant_migrated", "client_id", c.ClientID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tenant databases\n", len(clients))
			return nil
		},
	}
}
