package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/es"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := loadConfig()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if err := a.migrate(); err != nil {
		return err
	}

	var pub mykafka.Publisher = mykafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		pub = prod
	} else {
		logger.Info("kafka_disabled", "reason", "no brokers configured")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}()
	updates := &mykafka.Broadcaster{Pub: pub, Topic: cfg.KafkaUpdatesTopic}

	var search *es.ProductIndex
	if cfg.ESURL != "" {
		client, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			return fmt.Errorf("elasticsearch: %w", err)
		}
		search = &es.ProductIndex{ES: client, Index: cfg.ESIndex}
		if err := search.EnsureIndex(ctx); err != nil {
			logger.Warn("es_index_unavailable", "index", cfg.ESIndex, "error", err)
			search = nil
		}
	}

	r := &repo.GormRepo{DB: a.db}
	platform := &repo.PlatformRepo{DB: a.platform}
	notifier := &service.Notifier{Repo: r, Updates: updates}
	keys := &service.KeyResolver{Repo: r, Env: cfg.Payments}
	gw := payments.NewClient()

	deps := &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:       &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, TokenTTL: cfg.AccessTokenTTL},
			CookieTTL: cfg.AccessTokenTTL,
		},
		Catalog:  &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Search: search, Updates: updates}},
		Cart:     &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Now: time.Now}},
		Orders:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates, Now: time.Now}},
		Payments: &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates}},
		Coupons:  &httpserver.CouponHTTP{Svc: &service.CouponService{Repo: r, Now: time.Now}},
		Seller:   &httpserver.SellerHTTP{Svc: &service.SellerService{Repo: r, Updates: updates, Now: time.Now}},
		Admin:    &httpserver.AdminHTTP{Svc: &service.AdminService{Repo: r, Notifier: notifier, Updates: updates, Now: time.Now}},
		Store:    &httpserver.StoreHTTP{Svc: &service.StoreService{Repo: r, UploadDir: cfg.UploadDir, Now: time.Now}},
		Platform: &httpserver.PlatformHTTP{Svc: newPlatformService(a)},

		Tenant:           tenant.Middleware(a.registry),
		JWTSecret:        cfg.JWTAccessSecret,
		SuperadminSecret: cfg.SuperadminJWTSecret,
		Ready: func(ctx context.Context) error {
			if err := r.Ping(ctx); err != nil {
				return err
			}
			return platform.Ping(ctx)
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins, AllowCredentials: true}))
	} else {
		e.Use(echomw.CORS())
	}
	e.Use(echomw.Secure())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:       true,
		SkipPrefixes: []string{"/api/payments/webhooks/", "/api/superadmin/"},
	}))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	logger.Info("server_stopped")
	return nil
}

func newPlatformService(a *app) *service.PlatformService {
	return &service.PlatformService{
		Platform:          &repo.PlatformRepo{DB: a.platform},
		Registry:          a.registry,
		JWTSecret:         a.cfg.SuperadminJWTSecret,
		TokenTTL:          a.cfg.AccessTokenTTL,
		BootstrapEmail:    a.cfg.SuperAdminEmail,
		BootstrapPassword: a.cfg.SuperAdminPassword,
		Now:               time.Now,
	}
}
