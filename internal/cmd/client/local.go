package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rzbill/logship/internal/capture"
	cfgpkg "github.com/rzbill/logship/internal/config"
	"github.com/rzbill/logship/internal/queue"
	"github.com/rzbill/logship/internal/runtime"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// newQueueLocalCommand constructs `queue local`, which opens storage
// directly. Use it while the server is stopped; pebble allows one process.
func newQueueLocalCommand() *cobra.Command {
	localCmd := &cobra.Command{
		Use:   "local",
		Short: "Operate on the queue in local storage without a server",
	}
	pf := localCmd.PersistentFlags()
	pf.String("config", "", "Config file (.yaml or .json)")
	pf.String("backend", "", "Storage backend: pebble|redis|sqlite")
	pf.String("data-dir", "", "Pebble data directory")
	pf.String("name", "", "Queue name (default from config)")

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Push a JSON object onto the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("json")
			ev, err := parseObject(raw, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("invalid --json: %w", err)
			}
			if len(ev) == 0 {
				return errors.New("--json must be a non-empty JSON object")
			}
			return withLocalQueue(cmd, func(ctx context.Context, q *queue.Queue[capture.Event]) error {
				if err := q.Push(ctx, ev); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pushed")
				return nil
			})
		},
	}
	pushCmd.Flags().String("json", "", `Event as a JSON object, or "-" to read stdin`)

	localCmd.AddCommand(
		pushCmd,
		&cobra.Command{
			Use:   "pop",
			Short: "Remove and print the oldest event",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withLocalQueue(cmd, func(ctx context.Context, q *queue.Queue[capture.Event]) error {
					ev, ok, err := q.Pop(ctx)
					return printEvent(cmd, ev, ok, err)
				})
			},
		},
		&cobra.Command{
			Use:   "peek",
			Short: "Print the oldest event without removing it",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withLocalQueue(cmd, func(ctx context.Context, q *queue.Queue[capture.Event]) error {
					ev, ok, err := q.Peek(ctx)
					return printEvent(cmd, ev, ok, err)
				})
			},
		},
		&cobra.Command{
			Use:   "len",
			Short: "Print the number of queued events",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withLocalQueue(cmd, func(ctx context.Context, q *queue.Queue[capture.Event]) error {
					n, err := q.Len(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				})
			},
		},
	)
	return localCmd
}

func printEvent(cmd *cobra.Command, ev capture.Event, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), ev)
}

// withLocalQueue opens the configured store, runs fn against the queue and
// closes the store.
func withLocalQueue(cmd *cobra.Command, fn func(context.Context, *queue.Queue[capture.Event]) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return err
	}
	if err := cfgpkg.FromEnv(&cfg); err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Storage.Backend = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Storage.DataDir = v
	}
	cfg = cfg.WithDefaultPaths()
	if cfg.Storage.Backend == cfgpkg.BackendMemory {
		return errors.New("the memory backend has nothing to inspect outside the server")
	}
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = cfg.Queue.Name
	}

	ctx := cmd.Context()
	logger := logpkg.NewLogger(
		logpkg.WithLevel(logpkg.WarnLevel),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()
	q, err := rt.OpenNamedQueue(name)
	if err != nil {
		return err
	}
	return fn(ctx, q)
}
