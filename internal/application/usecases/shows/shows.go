package shows

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"

	domain "quickshow/internal/domain/shows"
	"quickshow/internal/entities"
	"quickshow/internal/interfaces/events"
	"quickshow/internal/outbox"
)

type ShowsRepo interface {
	CreateShow(ctx context.Context, show domain.Show) (uuid.UUID, error)
}

type CreateShowUsecase struct {
	showsRepo       ShowsRepo
	trManager       *trmanager.Manager
	trGetter        *trmsqlx.CtxGetter
	watermillLogger watermill.LoggerAdapter
}

func NewCreateShowUsecase(
	showsRepo ShowsRepo,
	trManager *trmanager.Manager,
	trGetter *trmsqlx.CtxGetter,
	watermillLogger watermill.LoggerAdapter,
) *CreateShowUsecase {
	return &CreateShowUsecase{
		showsRepo:       showsRepo,
		trManager:       trManager,
		trGetter:        trGetter,
		watermillLogger: watermillLogger,
	}
}

// CreateShow stores the show and announces it; the announcement leaves
// through the outbox in the same transaction as the insert.
func (u *CreateShowUsecase) CreateShow(ctx context.Context, show domain.Show) (uuid.UUID, error) {
	if err := show.Validate(); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = u.showsRepo.CreateShow(ctx, show)
		if err != nil {
			return err
		}

		eventBus, err := u.eventBusInTx(ctx)
		if err != nil {
			return err
		}

		return eventBus.Publish(ctx, entities.ShowAdded_v1{
			Header:     entities.NewEventHeader(),
			ShowID:     id,
			MovieTitle: show.MovieTitle,
			StartsAt:   show.StartsAt,
		})
	})

	return id, err
}

func (u *CreateShowUsecase) eventBusInTx(ctx context.Context) (*cqrs.EventBus, error) {
	tr := u.trGetter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := outbox.NewPublisher(tr, u.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return events.NewEventBus(publisher, u.watermillLogger)
}
