package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSendCommand constructs the `send` command.
func NewSendCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Enqueue an event on a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("json")
			stateRaw, _ := cmd.Flags().GetString("state")
			ev, err := parseObject(raw, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("invalid --json: %w", err)
			}
			if len(ev) == 0 {
				return errors.New("--json must be a non-empty JSON object")
			}
			state, err := parseObject(stateRaw, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("invalid --state: %w", err)
			}
			if err := httpTransport(baseURL).Send(cmd.Context(), ev, state); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status: accepted")
			return nil
		},
	}
	cmd.Flags().String("json", "", `Event as a JSON object, or "-" to read stdin`)
	cmd.Flags().String("state", "", "Host state as a JSON object (used for dynamic headers)")
	return cmd
}

// NewCaptureCommand constructs the `capture` command.
func NewCaptureCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run an action through the server's capture pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("json")
			action, err := parseObject(raw, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("invalid --json: %w", err)
			}
			ok, err := httpTransport(baseURL).Capture(cmd.Context(), action, nil)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "status: dropped")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status: accepted")
			return nil
		},
	}
	cmd.Flags().String("json", "", `Action as a JSON object, or "-" to read stdin`)
	return cmd
}
