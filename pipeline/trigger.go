package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"newsshorts/kafka"
	"newsshorts/logger"
)

// RunRequest is the Kafka message that asks for a pipeline run.
type RunRequest struct {
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// Requests older than maxRequestAge are skipped.
const maxRequestAge = 6 * time.Hour

// NewKafkaTrigger returns a handler that runs the pipeline once per
// request. Requests arriving while a run is in flight are acknowledged
// and dropped.
func NewKafkaTrigger(runner *Runner, log logrus.FieldLogger) *kafka.TypedMessageHandler[RunRequest] {
	log = logger.OrDiscard(log)
	return &kafka.TypedMessageHandler[RunRequest]{
		Validate: func(msg *RunRequest) bool {
			if !msg.RequestedAt.IsZero() && time.Since(msg.RequestedAt) > maxRequestAge {
				log.WithField("requested_at", msg.RequestedAt).Warn("Skipping stale run request")
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *RunRequest) error {
			log := log.WithField("requested_by", msg.RequestedBy)
			res, err := runner.Run(ctx)
			if errors.Is(err, ErrRunInProgress) {
				log.Warn("Run already in progress, dropping request")
				return nil
			}
			if err != nil {
				return err
			}
			log.WithField("run_id", res.RunID).Info("✓ Triggered run finished")
			return nil
		},
		AlwaysMark: true,
		Log:        log,
	}
}
