package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/missionhq/missionctl/internal/activity"
	activityrepo "github.com/missionhq/missionctl/internal/activity/repositoryimpl"
	"github.com/missionhq/missionctl/internal/agent"
	agentrepo "github.com/missionhq/missionctl/internal/agent/repositoryimpl"
	"github.com/missionhq/missionctl/internal/cleanup"
	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/counter"
	counterrepo "github.com/missionhq/missionctl/internal/counter/repositoryimpl"
	"github.com/missionhq/missionctl/internal/directory"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/httpapi"
	"github.com/missionhq/missionctl/internal/message"
	messagerepo "github.com/missionhq/missionctl/internal/message/repositoryimpl"
	"github.com/missionhq/missionctl/internal/metric"
	metricrepo "github.com/missionhq/missionctl/internal/metric/repositoryimpl"
	"github.com/missionhq/missionctl/internal/notification"
	notificationrepo "github.com/missionhq/missionctl/internal/notification/repositoryimpl"
	"github.com/missionhq/missionctl/internal/notion"
	"github.com/missionhq/missionctl/internal/pushnotification"
	pushsubrepo "github.com/missionhq/missionctl/internal/pushsubscription/repositoryimpl"
	"github.com/missionhq/missionctl/internal/task"
	taskrepo "github.com/missionhq/missionctl/internal/task/repositoryimpl"
	"github.com/missionhq/missionctl/internal/terminallog"
	terminallogrepo "github.com/missionhq/missionctl/internal/terminallog/repositoryimpl"
	"github.com/missionhq/missionctl/internal/usage"
	usagerepo "github.com/missionhq/missionctl/internal/usage/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/clog"
	"github.com/missionhq/missionctl/pkg/storage"

	server "github.com/missionhq/missionctl/internal"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sentinel" {
		runSentinel()
		return
	}
	runServer()
}

func runServer() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	agentRepo := agentrepo.NewYAMLRepository(store)
	taskRepo := taskrepo.NewYAMLRepository(store)
	messageRepo := messagerepo.NewYAMLRepository(store)
	notificationRepo := notificationrepo.NewYAMLRepository(store)
	activityRepo := activityrepo.NewYAMLRepository(store)
	counterRepo := counterrepo.NewYAMLRepository(store)
	usageRepo := usagerepo.NewYAMLRepository(store)
	metricRepo := metricrepo.NewYAMLRepository(store)
	terminalLogRepo := terminallogrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup services
	counters := counter.NewService(counterRepo)
	activities := activity.NewService(activityRepo, directory.NewActivityResolver(agentRepo, taskRepo))
	notifications := notification.NewService(notificationRepo, directory.NewNotificationResolver(agentRepo), bus)
	messages := message.NewService(messageRepo, agentRepo, taskRepo, activities, notifications, bus)
	tasks := task.NewService(taskRepo, counters, activities, notifications, directory.NewTaskResolver(agentRepo), messages, bus)
	agents := agent.NewService(agentRepo, taskRepo, activities, bus)
	usageService := usage.NewService(usageRepo, agentRepo, taskRepo)
	metrics := metric.NewService(metricRepo)
	terminalLogs := terminallog.NewService(terminalLogRepo, agentRepo)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, notificationRepo, agentRepo, taskRepo, pushSender)

	// Setup Notion sync when a token is configured
	var (
		syncer       *notion.Syncer
		notionRunner *notion.Runner
	)
	if env.NotionToken != "" {
		client := notion.NewClient(env.NotionToken, env.NotionTasksDB, env.NotionAgentsDB)
		syncer = notion.NewSyncer(client, taskRepo, agentRepo, counters, bus)
		notionRunner = notion.NewRunner(syncer, counters, env.SyncInterval)
	}

	// Setup retention sweeps
	cleaner := cleanup.NewCleaner(activities, terminalLogs, metrics, env.MetricsRetentionDays)
	cleanupRunner := cleanup.NewRunner(cleaner, env.CleanupInterval)

	apiHandler := httpapi.NewHandler(
		tasks,
		agents,
		messages,
		notifications,
		activities,
		usageService,
		metrics,
		terminalLogs,
		counters,
		pushSubRepo,
		syncer,
	)
	srv := server.NewServer(env, apiHandler)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)
	go cleanupRunner.Start(ctx)
	if notionRunner != nil {
		go notionRunner.Start(ctx)
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
