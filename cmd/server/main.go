package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/config"
	"github.com/yukikurage/taskmanager/internal/database"
	"github.com/yukikurage/taskmanager/internal/handlers"
	"github.com/yukikurage/taskmanager/internal/logging"
	"github.com/yukikurage/taskmanager/internal/repository"
	"github.com/yukikurage/taskmanager/internal/services"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	log := logging.New(cfg.LogLevel)

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	if err := database.Migrate(db, log); err != nil {
		log.Error("cannot run migrations", "error", err)
		os.Exit(1)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Error("cannot create session store", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey, log)
	} else {
		log.Info("OPENAI_API_KEY not set, task suggestions disabled")
	}

	r := gin.New()
	handlers.Register(r, handlers.Deps{
		Log:          log,
		SessionStore: store,
		AuthService:  services.NewAuthService(repository.NewUserRepository(db), log),
		TaskService:  services.NewTaskService(repository.NewTaskRepository(db), log),
		AIService:    aiService,
	})

	server := http.Server{
		Addr:              cfg.HTTPAddress,
		ReadHeaderTimeout: readHeaderTimeout,
		Handler:           r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("task manager http server", "address", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// newSessionStore builds the configured session backend with shared cookie options
func newSessionStore(cfg config.Config) (sessions.Store, error) {
	var store sessions.Store

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		redisAddr := net.JoinHostPort(cfg.RedisHost, cfg.RedisPort)
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("redis store at %s: %w", redisAddr, err)
		}
		store = rs
	case config.SessionStoreCookie:
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
