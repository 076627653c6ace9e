package main

import (
	"context"
	"log/slog"
	"os"

	"wallet/config"
	"wallet/internal/delivery"
	"wallet/internal/delivery/api"
	"wallet/internal/delivery/api/middleware"
	"wallet/internal/delivery/api/router/handler"
	"wallet/internal/domain/repository"
	"wallet/internal/errors"
	"wallet/internal/infra/auth"
	logs "wallet/internal/infra/log"
	"wallet/internal/infra/persistence/memory"
	"wallet/internal/infra/persistence/postgres"
	"wallet/internal/infra/pubsub"
	"wallet/internal/infra/ratelimit"
	"wallet/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
	)
}

// credentialStore is the account repository and transaction manager of one storage driver.
type credentialStore struct {
	fx.Out

	AccountRepo repository.AccountRepository
	TxManager   repository.TransactionManager
}

// newCredentialStore selects the credential store from storage.driver
func newCredentialStore(params postgres.Params) (credentialStore, error) {
	switch params.Config.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := postgres.New(params)
		if err != nil {
			return credentialStore{}, err
		}
		params.Logger.Info("Credential store using postgres")

		return credentialStore{
			AccountRepo: postgres.NewAccountRepository(db),
			TxManager:   postgres.NewTransactionManager(db),
		}, nil

	case config.StorageDriverMemory:
		params.Logger.Warn("Credential store using memory; accounts are lost on restart")
		store := memory.NewStore()

		return credentialStore{
			AccountRepo: memory.NewAccountRepository(store),
			TxManager:   memory.NewTransactionManager(store),
		}, nil

	default:
		return credentialStore{}, errors.Errorf("unknown storage driver: %s", params.Config.Storage.Driver)
	}
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newCredentialStore,
			ratelimit.NewStore,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			ratelimit.NewLimiter,
			pubsub.NewEventPublisher,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewAdminMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewAdminHandler,
			handler.NewHealthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
