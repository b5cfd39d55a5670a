package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	bountyhub "github.com/set-night/bountyhub"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/events"
	"github.com/set-night/bountyhub/internal/handler"
	"github.com/set-night/bountyhub/internal/repository"
	"github.com/set-night/bountyhub/internal/repository/memory"
	"github.com/set-night/bountyhub/internal/repository/postgres"
	"github.com/set-night/bountyhub/internal/repository/redisguard"
	"github.com/set-night/bountyhub/internal/service"
	"github.com/set-night/bountyhub/internal/telegram"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	dir       service.Directory
	platforms service.PlatformStore
	messages  service.MessageStore
	close     func()
}

func main() {
	// Setup structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	markets, err := config.LoadMarkets(cfg.MarketsFile, cfg.DefaultLocale)
	if err != nil {
		slog.Error("failed to load markets", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer st.close()

	var guard service.KeyGuard = memory.NewKeyGuard()
	if cfg.RedisURL != "" {
		client, err := redisguard.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		guard = redisguard.New(client)
	}

	// Initialize services
	bus := events.NewBus(config.EventBufferSize)
	ledger := service.NewLedgerService(st.dir, bus)
	tiers := service.NewTierEvaluator(markets, st.messages)
	ledger.OnCommit(tiers.NotifyUpgrades)
	commissions := service.NewCommissionService(st.dir, ledger, tiers)

	var opsLog *telegram.OpsLogger
	if cfg.BotToken != "" {
		b, err := bot.New(cfg.BotToken)
		if err != nil {
			slog.Error("failed to create bot", "error", err)
			os.Exit(1)
		}
		opsLog = telegram.NewOpsLogger(b, cfg)
	}

	h := handler.New(handler.Deps{
		Cfg:         cfg,
		Accounts:    service.NewAccountService(st.dir, ledger, st.messages, markets),
		Ledger:      ledger,
		Tasks:       service.NewTaskService(st.dir, st.platforms, ledger, tiers, commissions),
		Platforms:   service.NewPlatformService(st.platforms, service.NewLinkPreviewer(nil)),
		Withdrawals: service.NewWithdrawalService(ledger, markets),
		Gifts:       service.NewGiftService(st.dir, ledger, tiers, st.messages, guard),
		Bus:         bus,
		OpsLog:      opsLog,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting http server", "addr", srv.Addr, "markets", markets.Locales())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if opsLog != nil && opsLog.Enabled() {
		g.Go(func() error {
			return opsLog.Run(gctx, bus)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	slog.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// openStores uses Postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		mem := memory.New()
		return &stores{dir: mem, platforms: mem, messages: mem, close: func() {}}, nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolSize{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, err
	}

	migrationsFS, err := fs.Sub(bountyhub.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, err
	}

	pg := postgres.New(pool)
	return &stores{dir: pg, platforms: pg, messages: pg, close: pool.Close}, nil
}
