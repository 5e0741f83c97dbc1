package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quickshow/internal/observability"
)

// NewCorrelationMiddleware propagates the correlation id from message
// metadata (minting one if missing) and hangs a tagged logger on the message
// context for downstream handlers.
func NewCorrelationMiddleware(logger zerolog.Logger) message.HandlerMiddleware {
	return func(next message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			correlationID := msg.Metadata.Get("correlation_id")
			if correlationID == "" {
				correlationID = uuid.NewString()
			}

			msgLogger := logger.With().
				Str("correlation_id", correlationID).
				Str("message_uuid", msg.UUID).
				Logger()

			ctx := observability.ContextWithCorrelationID(msg.Context(), correlationID)
			msg.SetContext(msgLogger.WithContext(ctx))

			return next(msg)
		}
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		zerolog.Ctx(msg.Context()).Info().
			Str("payload", string(msg.Payload)).
			Msg("Handling a message")

		messages, err := next(msg)

		if err != nil {
			zerolog.Ctx(msg.Context()).Err(err).
				Str("payload", string(msg.Payload)).
				Msg("Message handling error")
		}

		return messages, err
	}
}

var ErrJsonUnmarshal = errors.New("json unmarshal error")

// SkipMarshallingErrorsMiddleware drops malformed messages instead of
// retrying them forever.
func SkipMarshallingErrorsMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)

		if err != nil {
			if errors.Is(err, ErrJsonUnmarshal) {
				zerolog.Ctx(msg.Context()).Warn().
					Err(err).
					Msg("Error while unmarshalling message")
				return nil, nil
			}
			return msgs, err
		}

		return msgs, nil
	}
}
