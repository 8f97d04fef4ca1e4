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

	"github.com/Gcbank-Online/glcbank/ledger-service/internal/command"
	"github.com/Gcbank-Online/glcbank/ledger-service/internal/handler"
	"github.com/Gcbank-Online/glcbank/ledger-service/internal/query"
	"github.com/Gcbank-Online/glcbank/ledger-service/internal/repository"
	"github.com/Gcbank-Online/glcbank/shared/config"
	"github.com/Gcbank-Online/glcbank/shared/events"
	"github.com/Gcbank-Online/glcbank/shared/logger"
	"github.com/Gcbank-Online/glcbank/shared/middleware"
	"github.com/Gcbank-Online/glcbank/shared/models"
	sharedredis "github.com/Gcbank-Online/glcbank/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// transferStreamMaxLen bounds the transfer.events stream.
const transferStreamMaxLen = 100000

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("ledger service stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Redis connection
	rdb, err := sharedredis.NewClient(ctx, sharedredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	publisher := events.NewPublisher(rdb.Client, transferStreamMaxLen)

	// Account identities never change, so cached refs never expire.
	refCache := sharedredis.NewViewCache[models.AccountRef](rdb.Client, repository.AccountRefKeyPrefix, 0, log)

	// CQRS: locked write scope, unlocked read repositories
	store := repository.NewStore(db, cfg.LockTimeout, log)
	accountReads := repository.NewAccountReadRepository(db, refCache)
	ledgerReads := repository.NewLedgerRepository(db)

	engine := command.NewTransferEngine(store, publisher, log)
	queries := query.NewQueryService(accountReads, ledgerReads)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.RegisterRoutes(router, middleware.AuthMiddleware([]byte(cfg.JWTSecret)),
		handler.NewTransferHandler(engine),
		handler.NewAccountHandler(queries),
		handler.NewTransactionHandler(queries),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ledger service starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down ledger service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
