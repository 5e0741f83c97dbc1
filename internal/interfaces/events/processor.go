package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"quickshow/internal/entities"
)

func NewEventProcessor(
	router *message.Router,
	rdb *redis.Client,
	marshaler cqrs.CommandEventMarshaler,
	logger watermill.LoggerAdapter,
) (*cqrs.EventProcessor, error) {
	return cqrs.NewEventProcessorWithConfig(
		router,
		cqrs.EventProcessorConfig{
			GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
				handlerEvent := params.EventHandler.NewEvent()
				event, ok := handlerEvent.(entities.Event)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", handlerEvent)
				}

				return topicForEvent(params.EventName, event), nil
			},
			SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
				return redisstream.NewSubscriber(redisstream.SubscriberConfig{
					Client:        rdb,
					ConsumerGroup: "svc-quickshow." + params.HandlerName,
				}, logger)
			},
			Marshaler: taggedMarshaler{marshaler},
			Logger:    logger,
		},
	)
}

// taggedMarshaler marks unmarshal failures with ErrJsonUnmarshal so the skip
// middleware can tell a malformed payload from a handler failure.
type taggedMarshaler struct {
	cqrs.CommandEventMarshaler
}

func (m taggedMarshaler) Unmarshal(msg *message.Message, v any) error {
	if err := m.CommandEventMarshaler.Unmarshal(msg, v); err != nil {
		return fmt.Errorf("%w: %s", ErrJsonUnmarshal, err)
	}
	return nil
}
