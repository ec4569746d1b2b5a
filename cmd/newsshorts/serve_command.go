package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsshorts/api"
	"newsshorts/kafka"
	"newsshorts/pipeline"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var withKafka bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API, with optional cron schedule and Kafka trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			a, err := buildApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			runner := pipeline.NewRunner(a.pipeline, log)
			server := api.NewServer(cfg, runner, a.feeds, log)
			errc := server.Start()

			if cfg.Server.CronSchedule != "" {
				if err := server.StartCron(cfg.Server.CronSchedule); err != nil {
					return err
				}
			}

			consumeCtx, cancelConsume := context.WithCancel(cmd.Context())
			defer cancelConsume()
			if withKafka {
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
				if err := consumer.Start(consumeCtx); err != nil {
					return err
				}
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case sig := <-sigChan:
				log.WithField("signal", sig.String()).Info("Received shutdown signal")
			case err := <-errc:
				if err != nil {
					return err
				}
			}

			cancelConsume()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("HTTP server shutdown")
			}
			runner.Wait()
			log.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withKafka, "kafka", false, "Also accept run requests from the Kafka topic")
	return cmd
}
