package app

import (
	"context"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"quickshow/internal/application/usecases/expiry"
	"quickshow/internal/application/usecases/payments"
	"quickshow/internal/application/usecases/reservation"
	showsUsecase "quickshow/internal/application/usecases/shows"
	"quickshow/internal/config"
	"quickshow/internal/infrastructure/clients"
	"quickshow/internal/interfaces/events"
	"quickshow/internal/interfaces/http"
	"quickshow/internal/notifications"
	"quickshow/internal/outbox"
	"quickshow/internal/repository"
	"quickshow/internal/scheduler"
)

// reminderSchedule fires every 8 hours; together with the reminder window
// overlap this covers every show exactly once.
const reminderSchedule = "0 */8 * * *"

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger

	router    *message.Router
	forwarder *outbox.Forwarder
	srv       *http.Server
	worker    *scheduler.ReleaseWorker
	reminders *notifications.ReminderService

	db *sqlx.DB
}

func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	trManager := trmanager.Must(trmsqlx.NewDefaultFactory(db))
	trGetter := trmsqlx.DefaultCtxGetter

	showsRepo := repository.NewShowsRepo(db, trGetter)
	seatsRepo := repository.NewSeatsRepo(db, trGetter)
	bookingsRepo := repository.NewBookingsRepo(db, trGetter)
	releaseJobsRepo := repository.NewReleaseJobsRepo(db, trGetter)
	usersRepo := repository.NewUsersRepo(db, trGetter)
	orphanedRepo := repository.NewOrphanedPaymentsRepo(db, trGetter)

	stripeClient := clients.NewStripeClient(cfg.StripeSecretKey)
	mailClient, err := clients.NewMailClient(clients.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return nil, err
	}

	reserveUsecase := reservation.NewReserveSeatsUsecase(
		showsRepo,
		seatsRepo,
		bookingsRepo,
		releaseJobsRepo,
		stripeClient,
		trManager,
		watermillLogger,
		cfg.HoldTTL,
		cfg.CheckoutSessionExpiry,
	)
	confirmUsecase := payments.NewConfirmPaymentUsecase(
		bookingsRepo,
		releaseJobsRepo,
		trManager,
		trGetter,
		watermillLogger,
	)
	createShowUsecase := showsUsecase.NewCreateShowUsecase(
		showsRepo,
		trManager,
		trGetter,
		watermillLogger,
	)
	releaseUsecase := expiry.NewReleaseExpiredHoldsUsecase(
		bookingsRepo,
		seatsRepo,
		releaseJobsRepo,
		trManager,
	)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.NewCorrelationMiddleware(logger))
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}
	processor, err := events.NewEventProcessor(router, redisClient, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}

	handler := events.NewHandler(mailClient, bookingsRepo, showsRepo, usersRepo, orphanedRepo)
	err = processor.AddHandlers(
		handler.SendBookingConfirmationHandler(),
		handler.AnnounceShowHandler(),
		handler.RecordOrphanedPaymentHandler(),
	)
	if err != nil {
		return nil, err
	}

	fwd, err := outbox.NewForwarder(db, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}

	srv := http.NewServer(
		logger,
		reserveUsecase,
		createShowUsecase,
		confirmUsecase,
		usersRepo,
		cfg.StripeWebhookSecret,
		cfg.PublicURL,
		cfg.Port,
		router.IsRunning,
	)

	worker := scheduler.NewReleaseWorker(releaseUsecase, cfg.ReleaseWorkerInterval, logger)
	reminders := notifications.NewReminderService(showsRepo, seatsRepo, usersRepo, mailClient, logger)

	return &App{
		watermillLogger: watermillLogger,
		logger:          logger,
		router:          router,
		forwarder:       fwd,
		srv:             srv,
		worker:          worker,
		reminders:       reminders,
		db:              db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := repository.InitializeDBSchema(a.db)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().Msg("starting outbox forwarder")
		return a.forwarder.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		a.logger.Info().Msg("starting release worker")
		return a.worker.Run(ctx)
	})

	g.Go(func() error {
		return a.runReminders(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	return g.Wait()
}

func (a *App) runReminders(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(reminderSchedule, func() {
		report, err := a.reminders.RunOnce(ctx)
		if err != nil {
			a.logger.Err(err).Msg("reminder pass failed")
			return
		}
		if report.Sent > 0 || report.Failed > 0 {
			a.logger.Info().
				Int("sent", report.Sent).
				Int("failed", report.Failed).
				Msg("reminder pass finished")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()

	return ctx.Err()
}
