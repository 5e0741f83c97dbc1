package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"quickshow/internal/entities"
)

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return topicForEvent(params.EventName, params.Event), nil
			},
			Marshaler: cqrs.JSONMarshaler{
				GenerateName: cqrs.StructName,
			},
			Logger: logger,
		},
	)
}

// topicForEvent keeps service-internal events on a namespaced topic so other
// services never subscribe to them by accident.
func topicForEvent(eventName string, event any) string {
	if e, ok := event.(entities.Event); ok && e.IsInternal() {
		return "internal-events.svc-quickshow." + eventName
	}
	return "events." + eventName
}
