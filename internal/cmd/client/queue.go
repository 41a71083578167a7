package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueueCommand constructs the `queue` command group.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Inspect and drain the queue"}
	queueCmd.AddCommand(
		newQueuePeekCommand(baseURL),
		newQueueStatsCommand(baseURL),
		newQueueDrainCommand(baseURL),
		newQueueLocalCommand(),
	)
	return queueCmd
}

func newQueuePeekCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "peek",
		Short: "Print the oldest queued event without removing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, ok, err := httpTransport(baseURL).Peek(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), ev)
		},
	}
}

func newQueueStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the queue name and length",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := httpTransport(baseURL).Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue: %s\nlength: %d\n", s.Name, s.Length)
			return nil
		},
	}
}

func newQueueDrainCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Deliver queued events now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stateRaw, _ := cmd.Flags().GetString("state")
			state, err := parseObject(stateRaw, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("invalid --state: %w", err)
			}
			n, err := httpTransport(baseURL).Drain(cmd.Context(), state)
			fmt.Fprintf(cmd.OutOrStdout(), "delivered: %d\n", n)
			return err
		},
	}
	cmd.Flags().String("state", "", "Host state as a JSON object")
	return cmd
}
