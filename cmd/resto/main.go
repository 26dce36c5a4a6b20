package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/guruweb/resto/internal/afip"
	"github.com/guruweb/resto/internal/api"
	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/app"
	"github.com/guruweb/resto/internal/auth"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/cashregister"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/dashboard"
	"github.com/guruweb/resto/internal/observability"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/platform/cache"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/rbac"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
	"github.com/guruweb/resto/internal/webhook"
	"github.com/guruweb/resto/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, "resto_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}
	render := view.NewRenderer(templates, csrfManager, logger)
	tx := db.NewTxManager(pool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	notifierOpts := []webhook.NotifierOption{webhook.WithRecorder(metrics)}
	var inspector *asynq.Inspector
	if cfg.WebhookAsync {
		queue := jobs.NewClient(redisOpts)
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		notifierOpts = append(notifierOpts, webhook.WithQueue(queue))
		inspector = asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}
	notifier := webhook.NewNotifier(webhook.NewSender(cfg.WebhookTimeout), logger, notifierOpts...)

	authService := auth.NewService(auth.NewRepository(pool))
	businessService := businesses.NewService(businesses.NewRepository(pool), tx, authService)
	productService := products.NewService(products.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	keyService := apikeys.NewService(apikeys.NewRepository(pool))

	orderService := orders.NewService(orders.NewRepository(pool), tx, orders.Options{
		Catalog:          productService,
		Customers:        customerService,
		Businesses:       businessService,
		AFIP:             afip.NewClient(cfg.AFIPBaseURL, cfg.AFIPTimeout),
		Notifier:         notifier,
		Versions:         cache.NewCounter(redisClient, "orders:version"),
		Metrics:          metrics,
		StatusWebhookURL: cfg.StatusWebhookURL,
		Logger:           logger,
	})
	registerService := cashregister.NewService(cashregister.NewRepository(pool), tx, orderService, nil)

	var jobHandler *jobs.Handler
	if inspector != nil {
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	apiHandler := api.NewHandler(logger, customerService, orderService, productService, func(ctx context.Context) error {
		return db.Check(ctx, pool)
	})

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Metrics:             metrics,
		RBAC:                rbac.Middleware{Logger: logger},
		AuthHandler:         auth.NewHandler(logger, authService, render, sessionManager, csrfManager),
		DashboardHandler:    dashboard.NewHandler(logger, orderService, registerService, render, cfg.LivePollInterval),
		OrdersHandler:       orders.NewHandler(logger, orderService, productService, customerService, render),
		ProductsHandler:     products.NewHandler(logger, productService, render),
		CustomersHandler:    customers.NewHandler(logger, customerService, render),
		CashRegisterHandler: cashregister.NewHandler(logger, registerService, render),
		BusinessesHandler:   businesses.NewHandler(logger, businessService, keyService, render),
		APIKeysHandler:      apikeys.NewHandler(logger, keyService, render),
		JobHandler:          jobHandler,
		API:                 api.Router(apiHandler, keyService, cfg.APIRateLimit, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		notifier.Wait()
		return err
	})
	return g.Wait()
}
