package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsshorts/kafka"
	"newsshorts/pipeline"
)

func newConsumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run the pipeline for each request on the Kafka topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(runCtx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			runner := pipeline.NewRunner(a.pipeline, log)
			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.Group,
				Handler: pipeline.NewKafkaTrigger(runner, log),
				Log:     log,
			})
			if err != nil {
				return err
			}
			defer consumer.Close()

			if err := consumer.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			log.Info("Received termination signal")
			return nil
		},
	}
}
