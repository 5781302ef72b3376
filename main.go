package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/cache"
	"github.com/krishhhh88/instadrive-backend/infrastructure/clients/facebook"
	"github.com/krishhhh88/instadrive-backend/infrastructure/clients/google"
	"github.com/krishhhh88/instadrive-backend/infrastructure/configuration"
	"github.com/krishhhh88/instadrive-backend/infrastructure/crypto"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/infrastructure/persistence"
	"github.com/krishhhh88/instadrive-backend/infrastructure/pubsub"
	"github.com/krishhhh88/instadrive-backend/infrastructure/realtime"
	"github.com/krishhhh88/instadrive-backend/infrastructure/scheduler"
	"github.com/krishhhh88/instadrive-backend/infrastructure/servicebus"
	httpHandler "github.com/krishhhh88/instadrive-backend/interfaces/http"
	"github.com/krishhhh88/instadrive-backend/server"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

type repositories struct {
	accounts  repository.IAccount
	schedules repository.ISchedule
	queue     repository.IQueue
}

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	cfg := configuration.C

	if err := cfg.ValidatePipeline(); err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Pipeline configuration incomplete")
	}
	codec, err := crypto.NewCodec(cfg.Security.TokenEncryptionKey)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Token encryption key rejected")
	}

	db, repos, err := InitiateDatabase(cfg.Database)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Database initialization failed")
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.RedisClient.Host != "" {
		redisClient, err = cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
		)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available - refresh locks stay process local")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	hub := realtime.NewQueueHub()
	notifiers := []repository.IQueueNotifier{hub}
	if cfg.Pubsub.ProjectID != "" && cfg.Pubsub.Topic != "" {
		pubSubClient, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - queue events not published")
		} else {
			defer pubSubClient.Close()
			notifiers = append(notifiers, pubsub.NewQueueEventPublisher(pubSubClient, cfg.Pubsub.Topic))
		}
	}
	if cfg.ServiceBus.Namespace != "" && cfg.ServiceBus.Queue != "" {
		if sender, err := newServiceBusNotifier(ctx, cfg.ServiceBus); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - queue events not forwarded")
		} else {
			defer sender.Close(context.Background())
			notifiers = append(notifiers, sender)
		}
	}

	googleTokens := google.NewTokenProvider(google.Config{
		ClientID:     cfg.OAuth.Google.ClientID,
		ClientSecret: cfg.OAuth.Google.ClientSecret,
		RedirectURL:  cfg.OAuth.Google.RedirectURI,
		TokenURL:     cfg.OAuth.Google.TokenURL,
	})
	facebookTokens := facebook.NewTokenProvider(facebook.Config{
		ClientID:     cfg.OAuth.Facebook.ClientID,
		ClientSecret: cfg.OAuth.Facebook.ClientSecret,
		RedirectURL:  cfg.OAuth.Facebook.RedirectURI,
		GraphURL:     cfg.Instagram.GraphBaseURL,
		APIVersion:   cfg.Instagram.APIVersion,
	})
	driveClient := google.NewDriveClient(afero.NewOsFs())
	graphClient := facebook.NewGraphClient(facebook.GraphConfig{
		BusinessAccountID: cfg.Instagram.BusinessAccountID,
		GraphURL:          cfg.Instagram.GraphBaseURL,
		APIVersion:        cfg.Instagram.APIVersion,
		RequestsPerSecond: cfg.Instagram.RequestsPerSecond,
	})

	credentialUsecase := usecase.NewCredentialUsecase(repos.accounts, codec, cache.NewRefreshLocker(redisClient), googleTokens, facebookTokens)
	ledger := usecase.NewStatusLedger(repos.queue, notifiers...)
	pipelineUsecase := usecase.NewPipelineUsecase(
		repos.schedules, repos.queue, repos.accounts,
		credentialUsecase, driveClient, graphClient, ledger,
		usecase.PipelineConfig{Workers: cfg.Cron.Workers, EntryTimeout: cfg.Cron.EntryTimeout()},
	)

	router := server.InitiateRouter(
		server.RouterConfig{Origins: cfg.App.Origins, SecretKey: cfg.App.SecretKey, CronSecret: cfg.Cron.Secret},
		server.Handlers{
			Cron:          httpHandler.NewCronHandler(pipelineUsecase, cfg.Cron.TriggerTimeout()),
			Queue:         httpHandler.NewQueueHandler(usecase.NewQueueUsecase(repos.queue)),
			Schedule:      httpHandler.NewScheduleHandler(usecase.NewScheduleUsecase(repos.schedules)),
			Drive:         httpHandler.NewDriveHandler(usecase.NewDriveUsecase(repos.accounts, credentialUsecase, driveClient)),
			Account:       httpHandler.NewAccountHandler(usecase.NewAccountUsecase(repos.accounts)),
			Health:        httpHandler.NewHealthHandler(db),
			GoogleOAuth:   httpHandler.NewOAuthHandler(googleTokens, credentialUsecase),
			FacebookOAuth: httpHandler.NewOAuthHandler(facebookTokens, credentialUsecase),
			QueueStream:   hub.Serve,
		},
	)

	if cfg.Cron.InternalEnabled {
		trigger := scheduler.NewMinuteTrigger(pipelineUsecase.RunTrigger, cfg.Cron.TriggerTimeout())
		g.Go(func() error { return trigger.Start(ctx) })
		logger.GetLogger().Info("Internal minute trigger enabled")
	}

	app := cfg.App
	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		var err error
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
			err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
		} else {
			if app.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if httpServer != nil {
			return httpServer.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the configured vendor, ensures its schema and returns matching repositories.
func InitiateDatabase(cfg configuration.Database) (*sql.DB, repositories, error) {
	switch cfg.Vendor {
	case "mssql":
		db, err := persistence.NewMSSQLDB(cfg.Mssql)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, repositories{}, err
		}
		if err := persistence.EnsureSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, repositories{}, err
		}
		return db, repositories{
			accounts:  persistence.NewAccountRepositoryMSSQL(db),
			schedules: persistence.NewScheduleRepositoryMSSQL(db),
			queue:     persistence.NewQueueRepositoryMSSQL(db),
		}, nil
	default:
		db, err := persistence.NewPostgreSQLDB(cfg.Psql)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
			return nil, repositories{}, err
		}
		if err := persistence.EnsureSchema(db); err != nil {
			_ = db.Close()
			return nil, repositories{}, err
		}
		return db, repositories{
			accounts:  persistence.NewAccountRepository(db),
			schedules: persistence.NewScheduleRepository(db),
			queue:     persistence.NewQueueRepository(db),
		}, nil
	}
}

func newServiceBusNotifier(ctx context.Context, cfg configuration.ServiceBus) (*servicebus.QueueEventSender, error) {
	client, err := servicebus.NewServiceBus(ctx, cfg.Namespace)
	if err != nil {
		return nil, err
	}
	return servicebus.NewQueueEventSender(client, cfg.Queue)
}
