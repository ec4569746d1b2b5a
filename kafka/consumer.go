package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"newsshorts/logger"
)

// MessageHandler processes one consumed message.
type MessageHandler interface {
	// HandleMessage returns whether the message should be marked as
	// processed. Unmarked messages are redelivered after a rebalance.
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// Consumer runs a sarama consumer group over a single topic.
type Consumer struct {
	consumer sarama.ConsumerGroup
	handler  MessageHandler
	topic    string
	groupID  string
	ready    chan bool
	log      logrus.FieldLogger
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
	Log     logrus.FieldLogger
}

// NewConsumer creates a consumer group client. Nothing is consumed until
// Start is called.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, newSaramaConfig())
	if err != nil {
		return nil, err
	}
	return newConsumer(client, cfg), nil
}

func newConsumer(group sarama.ConsumerGroup, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		consumer: group,
		handler:  cfg.Handler,
		topic:    cfg.Topic,
		groupID:  cfg.GroupID,
		ready:    make(chan bool),
		log:      logger.OrDiscard(cfg.Log),
	}
}

func newSaramaConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.Version = sarama.V3_6_0_0
	c.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Return.Errors = true
	return c
}

// Start joins the group and returns once the first session is set up.
// Consumption continues in the background until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{
		messageHandler: c.handler,
		ready:          c.ready,
		log:            c.log,
	}

	go func() {
		for {
			if err := c.consumer.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, sarama.ErrClosedConsumerGroup) {
					c.log.Info("Kafka consumer stopped")
					return
				}
				c.log.WithError(err).Error("Error from Kafka consumer")
			}

			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.log.WithFields(logrus.Fields{
		"group": c.groupID,
		"topic": c.topic,
	}).Info("✓ Kafka consumer started")

	go func() {
		for err := range c.consumer.Errors() {
			c.log.WithError(err).Error("Kafka consumer error")
		}
	}()

	return nil
}

func (c *Consumer) Close() error {
	c.log.Info("Closing Kafka consumer...")
	return c.consumer.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	messageHandler MessageHandler
	ready          chan bool
	log            logrus.FieldLogger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			h.handle(session, message)

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) handle(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) {
	log := h.log.WithFields(logrus.Fields{
		"partition": message.Partition,
		"offset":    message.Offset,
		"key":       string(message.Key),
	})
	log.Debug("Received Kafka message")

	shouldMark, err := h.messageHandler.HandleMessage(session.Context(), message.Value)
	if err != nil {
		log.WithError(err).Error("Failed to handle message")
	}
	if shouldMark {
		session.MarkMessage(message, "")
	}
}

// TypedMessageHandler decodes JSON messages into T before processing.
type TypedMessageHandler[T any] struct {
	// Validate reports whether the message should be processed
	Validate func(msg *T) bool
	Process  func(ctx context.Context, msg *T) error
	// AlwaysMark marks undecodable and invalid messages so they are skipped
	AlwaysMark bool
	Log        logrus.FieldLogger
}

func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.OrDiscard(h.Log).WithError(err).Warn("Failed to unmarshal message")
		return h.AlwaysMark, nil
	}

	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}

	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}
