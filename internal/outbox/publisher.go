package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"quickshow/internal/observability"
)

const Topic = "events_to_forward"

// NewPublisher returns a publisher that writes messages to the outbox table
// through the given transaction. The forwarder moves them to Redis Streams
// after commit, so events are only ever visible for transactions that
// actually committed.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	var decorated message.Publisher = observability.PublisherWithTracing{Publisher: publisher}
	decorated = observability.CorrelationPublisherDecorator{Publisher: decorated}

	return forwarder.NewPublisher(decorated, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	}), nil
}
