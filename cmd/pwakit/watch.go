package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/provide-io/pwakit/internal/settings"
	"github.com/provide-io/pwakit/internal/watch"
)

func newWatchCmd() *cobra.Command {
	flags := &generateFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch IMAGE",
		Short: "Regenerate the bundle whenever the source image changes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			store, err := settings.Open(settingsPath)
			if err != nil {
				return fmt.Errorf("%w: %v", errInvalidArgs, err)
			}
			req, err := flags.request(cmd, args[0], store)
			if err != nil {
				return err
			}
			if req.OutputPath == stdoutOutput {
				return fmt.Errorf("%w: watch needs an output file", errInvalidArgs)
			}

			w, err := watch.New(req.SourcePath, debounce, logger.Named("watch"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return w.Run(ctx, func(ctx context.Context) error {
				return generate(ctx, req, store, logger)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period after a change before regenerating")
	return cmd
}
