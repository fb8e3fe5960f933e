package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sk1972-mend/mendinsurance/internal/audit"
	"github.com/sk1972-mend/mendinsurance/internal/auth"
	cataloghttp "github.com/sk1972-mend/mendinsurance/internal/catalog/interfaces/http"
	coverageadapter "github.com/sk1972-mend/mendinsurance/internal/claims/adapters/coverage"
	ledgeradapter "github.com/sk1972-mend/mendinsurance/internal/claims/adapters/ledger"
	claimsapp "github.com/sk1972-mend/mendinsurance/internal/claims/application"
	claimsevents "github.com/sk1972-mend/mendinsurance/internal/claims/application/events"
	claims "github.com/sk1972-mend/mendinsurance/internal/claims/domain"
	claimsmemory "github.com/sk1972-mend/mendinsurance/internal/claims/infrastructure/memory"
	claimsrepo "github.com/sk1972-mend/mendinsurance/internal/claims/infrastructure/postgres"
	claimsinterfaces "github.com/sk1972-mend/mendinsurance/internal/claims/interfaces"
	claimshttp "github.com/sk1972-mend/mendinsurance/internal/claims/interfaces/http"
	"github.com/sk1972-mend/mendinsurance/internal/config"
	coverageapp "github.com/sk1972-mend/mendinsurance/internal/coverage/application"
	coverage "github.com/sk1972-mend/mendinsurance/internal/coverage/domain"
	coveragememory "github.com/sk1972-mend/mendinsurance/internal/coverage/infrastructure/memory"
	coveragerepo "github.com/sk1972-mend/mendinsurance/internal/coverage/infrastructure/postgres"
	coveragehttp "github.com/sk1972-mend/mendinsurance/internal/coverage/interfaces/http"
	"github.com/sk1972-mend/mendinsurance/internal/eventing"
	eventingmemory "github.com/sk1972-mend/mendinsurance/internal/eventing/infrastructure/memory"
	eventingrepo "github.com/sk1972-mend/mendinsurance/internal/eventing/infrastructure/postgres"
	ledgerapp "github.com/sk1972-mend/mendinsurance/internal/ledger/application"
	ledger "github.com/sk1972-mend/mendinsurance/internal/ledger/domain"
	ledgermemory "github.com/sk1972-mend/mendinsurance/internal/ledger/infrastructure/memory"
	ledgerrepo "github.com/sk1972-mend/mendinsurance/internal/ledger/infrastructure/postgres"
	ledgerhttp "github.com/sk1972-mend/mendinsurance/internal/ledger/interfaces/http"
	"github.com/sk1972-mend/mendinsurance/internal/observability/metrics"
	shopapp "github.com/sk1972-mend/mendinsurance/internal/shops/application"
	shops "github.com/sk1972-mend/mendinsurance/internal/shops/domain"
	shopsmemory "github.com/sk1972-mend/mendinsurance/internal/shops/infrastructure/memory"
	shopsrepo "github.com/sk1972-mend/mendinsurance/internal/shops/infrastructure/postgres"
	shopshttp "github.com/sk1972-mend/mendinsurance/internal/shops/interfaces/http"
)

const dispatchInterval = 30 * time.Second

var serveInMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveInMemory, "in-memory", false, "use in-memory stores instead of Postgres")
}

// repositories is the storage backing one process.
type repositories struct {
	coverage coverage.Repository
	shops    shops.Repository
	claims   claims.Repository
	ledger   ledger.Repository
	audit    audit.Logger
	outbox   eventing.OutboxStore
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		coverage: coveragerepo.NewRepository(db),
		shops:    shopsrepo.NewRepository(db),
		claims:   claimsrepo.NewRepository(db),
		ledger:   ledgerrepo.NewRepository(db),
		audit:    audit.NewRepository(db),
		outbox:   eventingrepo.NewOutboxStore(db),
	}
}

func memoryRepositories() repositories {
	return repositories{
		coverage: coveragememory.NewRepository(),
		shops:    shopsmemory.NewRepository(),
		claims:   claimsmemory.NewRepository(),
		ledger:   ledgermemory.NewRepository(),
		audit:    audit.NewMemoryLog(),
		outbox:   eventingmemory.NewOutboxStore(),
	}
}

// app is the wired service graph.
type app struct {
	handler    http.Handler
	dispatcher *eventing.Dispatcher
}

func buildApp(cfg config.Config, repos repositories, logger *zap.Logger) (*app, error) {
	cat, err := cfg.Rules.Catalog()
	if err != nil {
		return nil, err
	}
	router, err := cfg.Rules.Router()
	if err != nil {
		return nil, err
	}
	rate, err := cfg.Rules.Commission()
	if err != nil {
		return nil, err
	}

	registry := eventing.NewRegistry()
	registry.Register(claimsevents.All()...)
	bus := eventing.NewInMemoryBus()
	dispatcher := eventing.NewDispatcher(bus, repos.outbox, registry, logger.Named("dispatcher"))
	publisher := eventing.NewPublisher(repos.outbox, dispatcher)
	claimsinterfaces.NewQueueNotifier(logger.Named("queue")).Subscribe(bus)

	shopService, err := shopapp.NewService(repos.shops, repos.audit, shopapp.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("shop service: %w", err)
	}

	ledgerOpts := []ledgerapp.Option{ledgerapp.WithLogger(logger)}
	if !rate.IsZero() {
		ledgerOpts = append(ledgerOpts, ledgerapp.WithCommissionRate(rate))
	}
	ledgerService, err := ledgerapp.NewService(repos.ledger, shopService, repos.audit, ledgerOpts...)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	coverageService, err := coverageapp.NewService(repos.coverage, cat, repos.audit,
		coverageapp.WithShopDirectory(shopService),
		coverageapp.WithCommissionCrediter(ledgerService),
		coverageapp.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("coverage service: %w", err)
	}

	coverageReader, err := coverageadapter.NewReader(repos.coverage)
	if err != nil {
		return nil, err
	}
	payouts, err := ledgeradapter.NewPayoutRecorder(ledgerService)
	if err != nil {
		return nil, err
	}
	claimService, err := claimsapp.NewService(repos.claims, coverageReader, shopService, repos.audit,
		claimsapp.WithRouter(router),
		claimsapp.WithPublisher(publisher),
		claimsapp.WithPayoutRecorder(payouts),
		claimsapp.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("claim service: %w", err)
	}

	catalogHandler, err := cataloghttp.NewHandler(cat)
	if err != nil {
		return nil, err
	}
	coverageHandler, err := coveragehttp.NewHandler(coverageService)
	if err != nil {
		return nil, err
	}
	shopHandler, err := shopshttp.NewHandler(shopService)
	if err != nil {
		return nil, err
	}
	claimHandler, err := claimshttp.NewHandler(claimService)
	if err != nil {
		return nil, err
	}
	ledgerHandler, err := ledgerhttp.NewHandler(ledgerService, repos.audit, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/catalog/", catalogHandler)
	mux.Handle("/api/v1/devices", coverageHandler)
	mux.Handle("/api/v1/policies/", coverageHandler)
	mux.Handle("/api/v1/admin/registrations/", coverageHandler)
	mux.Handle("/api/v1/shops/apply", shopHandler)
	mux.Handle("/api/v1/admin/shops", shopHandler)
	mux.Handle("/api/v1/admin/shops/", shopHandler)
	mux.Handle("/api/v1/claims", claimHandler)
	mux.Handle("/api/v1/claims/", claimHandler)
	mux.Handle("/api/v1/scan", claimHandler)
	mux.Handle("/api/v1/shop/queue", claimHandler)
	mux.Handle("/api/v1/admin/claims", claimHandler)
	mux.Handle("/api/v1/admin/claims/", claimHandler)
	mux.Handle("/api/v1/shop/revenue", ledgerHandler)
	mux.Handle("/api/v1/shop/revenue/", ledgerHandler)
	mux.Handle("/api/v1/shop/wallet", ledgerHandler)
	mux.Handle("/api/v1/admin/ledger/", ledgerHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	return &app{
		handler:    loggingMiddleware(authMiddleware.Wrap(mux), logger),
		dispatcher: dispatcher,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repos repositories
	var db *sql.DB
	if serveInMemory {
		logger.Warn("serving from in-memory stores; data is lost on exit")
		repos = memoryRepositories()
	} else {
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		db, err = openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		repos = postgresRepositories(db)
	}
	metrics.Init(db, logger)

	application, err := buildApp(cfg, repos, logger)
	if err != nil {
		return err
	}
	go runDispatcher(ctx, application.dispatcher, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

// runDispatcher delivers outbox events left pending by a failed inline
// dispatch.
func runDispatcher(ctx context.Context, dispatcher *eventing.Dispatcher, logger *zap.Logger) {
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dispatcher.Dispatch(ctx, 100); err != nil {
				logger.Warn("outbox dispatch failed", zap.Error(err))
			}
		}
	}
}

// loggingMiddleware logs and measures every request. The request id becomes
// the correlation id of events raised while serving it.
func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(eventing.WithCorrelationID(r.Context(), requestID))

		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.ObserveHTTP(r.Method, strconv.Itoa(resp.status), elapsed)
		logger.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.status),
			zap.Duration("duration", elapsed))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
