package service

import (
	"context"
	"encoding/json"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventRelay forwards events off the process, e.g. to NATS JetStream.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	relay     EventRelay
	logger    logger.ILogger
}

// NewConsumerService drains the chat event topic. With a nil relay events are
// only logged.
func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, relay EventRelay, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		relay:     relay,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var env eventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		cs.logger.Error("EVENTS", "Failed to unmarshal event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // poison message, never retry
		return
	}

	event := events.BaseEvent{Type: env.Type, Data: env.Payload, OccurredAt: env.OccurredAt}

	if cs.relay == nil {
		cs.logger.Info("EVENTS", env.Type, env.Payload)
		msg.Ack()
		return
	}

	if err := cs.relay.Publish(ctx, event); err != nil {
		// relay is best effort; redelivery would spin while the broker is down
		cs.logger.Warn("EVENTS", "Failed to relay event", map[string]interface{}{
			"type":  env.Type,
			"error": err.Error(),
		})
	}
	msg.Ack()
}
