package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/course-payments/internal"
	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/core/events"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
	prPostgres "github.com/frahmantamala/course-payments/internal/paymentrequest/postgres"
	"github.com/frahmantamala/course-payments/internal/transport/rest"
	"github.com/frahmantamala/course-payments/internal/transport/swagger"
	"github.com/frahmantamala/course-payments/internal/user"
	"github.com/frahmantamala/course-payments/internal/user/cache"
	userPostgres "github.com/frahmantamala/course-payments/internal/user/postgres"
	"github.com/frahmantamala/course-payments/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	PaymentsDB *sqlx.DB
	UsersDB    *sqlx.DB
	Redis      *redis.Client
	EventBus   *events.EventBus
	Router     *chi.Mux
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenAuthenticator(cfg.Security.GetTokenSecret(), cfg.Security.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token authenticator: %w", err)
	}

	deps := &Dependencies{Config: cfg, Logger: lg, Router: chi.NewRouter()}

	deps.PaymentsDB, err = initDB(cfg.PaymentsDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payments database: %w", err)
	}
	deps.UsersDB, err = initDB(cfg.UsersDatabase)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize users database: %w", err)
	}
	gormDB, err := initGorm(deps.PaymentsDB)
	if err != nil {
		deps.Close()
		return nil, err
	}

	userRepo := userPostgres.NewUserRepository(deps.UsersDB)
	var directory user.Directory = userRepo
	if cfg.Cache.Enabled {
		deps.Redis = cache.NewClient(cfg.Cache)
		if err := deps.Redis.Ping(context.Background()).Err(); err != nil {
			lg.Warn("redis unreachable at startup; lookups fall through to the users database", "error", err)
		}
		directory = cache.NewDirectory(userRepo, deps.Redis, cfg.Cache.TTL, lg)
	}

	deps.EventBus = events.NewEventBus(lg)
	deps.EventBus.Subscribe(events.EventTypePaymentRequestDecided, events.AuditLogHandler(lg))

	authService := auth.NewService(userRepo, tokens, lg)
	userService := user.NewService(directory)
	workflow := paymentrequest.NewService(prPostgres.NewPaymentRequestRepository(gormDB), directory, deps.EventBus, lg)

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:           auth.NewHandler(authService),
		User:           user.NewHandler(userService),
		PaymentRequest: paymentrequest.NewHandler(workflow),
		Health: rest.NewHealthHandler(map[string]rest.Pinger{
			"payments_db": deps.PaymentsDB,
			"users_db":    userRepo,
		}),
	}, cfg.Server.AllowedOrigins, lg)

	return deps, nil
}

// Close releases connections; it is safe on partially built dependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
		d.Redis = nil
	}
	if d.UsersDB != nil {
		if err := d.UsersDB.Close(); err != nil {
			d.Logger.Error("Users database close error", "error", err)
		}
		d.UsersDB = nil
	}
	if d.PaymentsDB != nil {
		if err := d.PaymentsDB.Close(); err != nil {
			d.Logger.Error("Payments database close error", "error", err)
		}
		d.PaymentsDB = nil
	}
}
