package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsshorts/kafka"
	"newsshorts/pipeline"
)

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	var requestedBy string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Publish a run request to the Kafka topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			if err != nil {
				return err
			}
			defer producer.Close()

			req := pipeline.RunRequest{RequestedBy: requestedBy, RequestedAt: time.Now().UTC()}
			partition, offset, err := producer.PublishJSON("run", req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued run request on %s (partition %d, offset %d)\n", cfg.Kafka.Topic, partition, offset)
			return nil
		},
	}
	cmd.Flags().StringVar(&requestedBy, "by", "cli", "Requester recorded in the message")
	return cmd
}
