// Command oauthdemo serves the OAuth2 sign-in routes for every configured
// provider and answers each completed flow with the normalized identity.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/oauthflow/pkg/authflow"
	"github.com/dmitrymomot/oauthflow/pkg/health"
	"github.com/dmitrymomot/oauthflow/pkg/logger"
	"github.com/dmitrymomot/oauthflow/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oauthdemo:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log, os.Stdout, logger.FromContext("request_id", middleware.GetReqID))
	if err != nil {
		return err
	}
	defer logger.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := health.Checks{}
	store, closeStore, err := newStateStore(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	h := authflow.NewHandler(store, authflow.WithLogger(log))
	if err := registerProviders(h, cfg, log, &http.Client{Timeout: cfg.RequestTimeout}); err != nil {
		return err
	}
	if len(h.Providers()) == 0 {
		log.Warn("no oauth provider configured")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, h, checks, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", slog.String("address", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// newStateStore builds the configured state store. A Redis store adds its
// readiness check to checks.
func newStateStore(ctx context.Context, cfg config, checks health.Checks) (authflow.StateStore, func(), error) {
	opts := []authflow.StoreOption{
		authflow.WithTTL(cfg.StateTTL),
		authflow.WithSecure(!cfg.InsecureCookies),
		authflow.WithCookiePath("/auth"),
	}

	switch cfg.StateStore {
	case storeCookie:
		s, err := authflow.NewCookieStore(cfg.StateSecret, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("cookie state store: %w", err)
		}
		return s, func() {}, nil

	case storeRedis:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis state store: %w", err)
		}
		s, err := authflow.NewRedisStore(client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		checks["redis"] = redis.Healthcheck(client)
		return s, closer(client), nil
	}

	return nil, nil, fmt.Errorf("unknown STATE_STORE %q, want %s or %s", cfg.StateStore, storeCookie, storeRedis)
}

func closer(client goredis.UniversalClient) func() {
	return func() { _ = client.Close() }
}

func newRouter(cfg config, h *authflow.Handler, checks health.Checks, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(cfg.RequestTimeout),
	)

	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness(checks, 5*time.Second, log))
	r.Get("/", listProviders(h, cfg.PublicURL))
	r.Mount("/auth", h.Routes())

	return r
}

type providerLink struct {
	Name     string `json:"name"`
	LoginURL string `json:"login_url"`
}

func listProviders(h *authflow.Handler, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		names := h.Providers()
		links := make([]providerLink, 0, len(names))
		for _, name := range names {
			links = append(links, providerLink{Name: name, LoginURL: strings.TrimRight(publicURL, "/") + "/auth/" + name})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(links)
	}
}
