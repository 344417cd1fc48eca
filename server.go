package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"network/api/handlers"
	"network/api/routes"
	"network/config"
	"network/db"
	"network/logger"
	"network/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := logger.Init(config.AppConfig.Logs.Level); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.L.Sync() }()

	m, err := db.Connect(config.AppConfig)
	if err != nil {
		logger.L.Fatal("failed to connect to the database", zap.Error(err))
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := services.NewUserService(m)
	store, closeStore := sessionStore(m)
	defer closeStore()

	ws := services.NewWSConnManager()
	notifier := services.NewNotifier(eventPublisher(ctx, ws))
	follows := services.NewFollowService(m, users, notifier)

	h := &handlers.Handler{
		Auth:         services.NewAuthenticator(store, users),
		Users:        users,
		Posts:        services.NewPostService(m, notifier),
		Feed:         services.NewFeedService(m, users, follows),
		Likes:        services.NewLikeService(m, notifier),
		Follows:      follows,
		Comments:     services.NewCommentService(m, notifier),
		WS:           ws,
		SessionTTL:   config.AppConfig.Sessions.TTL,
		CookieSecure: config.AppConfig.Sessions.CookieSecure,
	}

	if config.AppConfig.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewEngine(h, logger.L)

	srv := &http.Server{
		Addr:    config.AppConfig.ListenAddr(),
		Handler: router,
	}
	go func() {
		logger.L.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("graceful shutdown failed", zap.Error(err))
	}
}

// sessionStore picks the session backend from config.
func sessionStore(m *db.Manager) (services.SessionStore, func()) {
	ttl := config.AppConfig.Sessions.TTL
	if config.AppConfig.Sessions.Backend != "redis" {
		return services.NewDBSessionStore(m, ttl), func() {}
	}

	client, err := services.NewRedisClient(config.AppConfig.Redis)
	if err != nil {
		logger.L.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.L.Info("using redis sessions", zap.String("host", config.AppConfig.Redis.Host))
	return services.NewRedisSessionStore(client, ttl), func() { _ = client.Close() }
}

// eventPublisher routes events through RabbitMQ when configured, otherwise
// straight to the websocket manager.
func eventPublisher(ctx context.Context, ws *services.WSConnManager) services.EventPublisher {
	rabbit := config.AppConfig.RabbitMQ
	if rabbit.URL == "" {
		return services.NewDirectPublisher(ws)
	}

	publisher, err := services.DialRabbitMQ(rabbit.URL, rabbit.Exchange)
	if err != nil {
		logger.L.Warn("RabbitMQ unavailable, delivering events directly", zap.Error(err))
		return services.NewDirectPublisher(ws)
	}
	if err := publisher.StartConsumer(ctx, rabbit.Queue, ws); err != nil {
		logger.L.Warn("failed to start event consumer, delivering events directly", zap.Error(err))
		_ = publisher.Close()
		return services.NewDirectPublisher(ws)
	}
	go func() {
		<-ctx.Done()
		_ = publisher.Close()
	}()
	return publisher
}
