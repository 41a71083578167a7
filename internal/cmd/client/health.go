package client

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/logship/internal/cmd/client/transports"
)

var healthTransport transports.HealthTransport = transports.NewGrpcTransport(dialGRPCContext)

// NewHealthCommand constructs the `health` command.
func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _ := cmd.Flags().GetString("service")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			status, err := healthTransport.Health(ctx, svc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			if status != "SERVING" {
				return fmt.Errorf("server is %s", status)
			}
			return nil
		},
	}
	cmd.Flags().String("service", "", "Health service name (empty checks the server)")
	cmd.Flags().Duration("timeout", 3*time.Second, "Request timeout")
	return cmd
}
