package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the logship client.
// It registers every client command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "logship",
		Short: "logship client commands",
	}
	Register(root, baseURL)
	return root
}

// Register adds the client commands to root.
func Register(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewSendCommand(baseURL),
		NewCaptureCommand(baseURL),
		NewQueueCommand(baseURL),
		NewHealthCommand(),
	)
}
