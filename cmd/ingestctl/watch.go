package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/common/bootstrap"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow deploy request notifications",
		Long: "ingestctl watch\n\n" +
			"Subscribes to the deploy request stream (QUEUE_STREAM) and prints one line\n" +
			"per queued request until interrupted. Requires QUEUE_TYPE=redis.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			components, err := bootstrap.Setup(ctx, serviceName,
				bootstrap.WithCustomLogger(cliLogger(cmd)),
				bootstrap.WithoutDB(),
				bootstrap.WithoutCache(),
				bootstrap.WithoutTelemetry(),
				bootstrap.WithConsumerName("ingestctl-watch"),
			)
			if err != nil {
				return err
			}
			defer shutdown(components)

			out := cmd.OutOrStdout()
			topic := components.Config.Queue.Stream
			if err := components.Queue.Subscribe(ctx, topic, printNotification(out)); err != nil {
				return err
			}

			fmt.Fprintf(out, "watching %s, press Ctrl+C to stop\n", topic)
			<-ctx.Done()
			return nil
		},
	}
}

func printNotification(w io.Writer) func(ctx context.Context, key string, value []byte) error {
	return func(ctx context.Context, key string, value []byte) error {
		var evt models.DeployRequestCreated
		if err := json.Unmarshal(value, &evt); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}
		fmt.Fprintf(w, "%s  %-8s  app=%s  source=%s  id=%s\n",
			evt.CreatedAt.Local().Format("15:04:05"), evt.Type, evt.AppID, evt.Source, evt.ID)
		return nil
	}
}
