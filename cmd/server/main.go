package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/bibektako/borrow-lend-backend/internal/borrow"
	"github.com/bibektako/borrow-lend-backend/internal/catalog"
	"github.com/bibektako/borrow-lend-backend/internal/config"
	"github.com/bibektako/borrow-lend-backend/internal/httpapi"
	"github.com/bibektako/borrow-lend-backend/internal/httpserver"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
	"github.com/bibektako/borrow-lend-backend/internal/mongodb"
	"github.com/bibektako/borrow-lend-backend/internal/notify"
	"github.com/bibektako/borrow-lend-backend/internal/realtime"
	"github.com/bibektako/borrow-lend-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", logging.Error(err))
		os.Exit(1)
	}

	log := logging.New(cfg.Log, cfg.ServiceName)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.Mongo.Database)

	itemStore := catalog.NewMongoStore(db)
	requestStore := borrow.NewMongoStore(db)
	notificationStore := notify.NewMongoStore(db)
	userLookup := users.NewMongoLookup(db)

	hubOpts := []realtime.HubOption{realtime.WithHubLogger(log)}
	var redisPresence *realtime.RedisPresence
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		client, err := realtime.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		rdb = client

		redisPresence = realtime.NewRedisPresence(client)
		hubOpts = append(hubOpts, realtime.WithPresenceStore(redisPresence))
	}

	hub := realtime.NewHub(cfg.RealtimeBufferSize, hubOpts...)
	defer hub.Close()

	var (
		presence notify.Presence = hub
		channel  notify.Channel  = hub
	)
	if rdb != nil {
		presence = redisPresence
		channel = realtime.NewPublisher(rdb)
		go func() {
			if err := realtime.RunBridge(ctx, rdb, hub, log); err != nil && ctx.Err() == nil {
				log.Error("realtime bridge stopped", logging.Error(err))
			}
		}()
	}

	dispatcherOpts := []notify.Option{
		notify.WithLogger(log),
		notify.WithQueueSize(cfg.DispatcherQueueSize),
	}
	if cfg.Email.Enabled() {
		sender, err := notify.NewPostmarkSender(cfg.Email)
		if err != nil {
			return err
		}
		dispatcherOpts = append(dispatcherOpts, notify.WithEmailSender(sender))
	}
	dispatcher := notify.NewDispatcher(userLookup, notificationStore, presence, channel, dispatcherOpts...)
	go dispatcher.Run(ctx)
	defer dispatcher.Close()

	svc := borrow.NewService(itemStore, requestStore, userLookup, dispatcher, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Requests:      svc,
		Notifications: notificationStore,
		Hub:           hub,
		Log:           log,
		Readiness:     []func(context.Context) error{mongodb.Healthcheck(client)},
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, router)
}
