package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/config"
)

func tenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "manage store tenants",
	}
	cmd.AddCommand(tenantCreateCommand())
	return cmd
}

func tenantCreateCommand() *cobra.Command {
	var (
		req          transport.CreateClientRequest
		subdomain    string
		customDomain string
	)

	cmd := &cobra.Command{
		Use:   "create [name] [email]",
		Short: "register a client, provision its store database and seed the store admin",
		Args:  cobra.ExactArgs(2),
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

			req.Name, req.Email = args[0], args[1]
			if subdomain != "" {
				req.Subdomain = &subdomain
			}
			if customDomain != "" {
				req.CustomDomain = &customDomain
			}

			c, err := newPlatformService(a).CreateClient(ctx, req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
	cmd.Flags().StringVar(&subdomain, "subdomain", "", "store subdomain, generated from the name when empty")
	cmd.Flags().StringVar(&customDomain, "domain", "", "custom domain served by the store")
	cmd.Flags().StringVar(&req.AdminPassword, "admin-password", "", "initial store admin password")
	return cmd
}
