package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SoulMinT05/mtshop-frontend/alert"
	"github.com/SoulMinT05/mtshop-frontend/cart"
	"github.com/SoulMinT05/mtshop-frontend/clients"
	"github.com/SoulMinT05/mtshop-frontend/config"
	"github.com/SoulMinT05/mtshop-frontend/handlers"
	"github.com/SoulMinT05/mtshop-frontend/logging"
	"github.com/SoulMinT05/mtshop-frontend/message"
	"github.com/SoulMinT05/mtshop-frontend/push"
	"github.com/SoulMinT05/mtshop-frontend/rabbitmq"
	"github.com/SoulMinT05/mtshop-frontend/shutdown"
	"github.com/SoulMinT05/mtshop-frontend/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()

	logger, err := logging.New("storefront", cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting storefront", zap.String("port", cfg.Port), zap.String("backend", cfg.BackendURL))

	// Set Gin mode
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	historyMode, err := message.ParseHistoryMode(cfg.HistoryMode)
	if err != nil {
		return err
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	channel, disconnected, closePush, err := newPushChannel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePush()

	backend := clients.NewBackendClient(cfg.BackendURL, cfg.BackendToken, cfg.RequestTimeout)
	st := store.New()
	feed := alert.NewFeed(cfg.AlertFeedSize)
	notifier := alert.Multi{feed, alert.NewLog(logger)}

	table := cart.NewTable(backend, cart.Deps{
		Backend:  backend,
		Store:    st,
		Notifier: notifier,
		Logger:   logger.Named("cart"),
		Options: cart.Options{
			RollbackOnFailure: cfg.RollbackOnFailure,
			AlertOnFailure:    cfg.AlertOnFailure,
		},
	})
	defer table.Close()

	if err := table.Refresh(ctx); err != nil {
		logger.Warn("initial cart load failed", zap.Error(err))
	}

	inbox := message.NewInbox(ctx, message.Deps{
		Backend: backend,
		Push:    channel,
		Store:   st,
		Logger:  logger.Named("message"),
		Mode:    historyMode,
	})
	defer inbox.CloseAll()

	router := handlers.NewRouter(
		handlers.NewCartHandler(table, logger.Named("handlers")),
		handlers.NewMessageHandler(inbox, logger.Named("handlers")),
		handlers.NewAlertHandler(feed),
		logger.Named("http"),
	)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		select {
		case <-disconnected:
			logger.Warn("push channel disconnected, live messages stopped")
		case <-gctx.Done():
		}
		return nil
	})

	return g.Wait()
}

// newPushChannel connects the configured transport. disconnected is closed if
// the transport drops on its own.
func newPushChannel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (push.Channel, <-chan struct{}, func(), error) {
	logger = logger.Named("push")

	switch cfg.PushTransport {
	case "websocket":
		ws, err := push.DialWebSocket(ctx, cfg.PushURL, cfg.BackendToken, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return ws, ws.Done(), func() { _ = ws.Close() }, nil

	case "amqp":
		pool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.ChannelPoolSize, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		return rabbitmq.NewSubscriber(pool, logger), nil, pool.Close, nil

	case "local":
		hub := push.NewHub()
		return hub, nil, func() { _ = hub.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown push transport %q", cfg.PushTransport)
	}
}
