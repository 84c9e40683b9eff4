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

	"github.com/joho/godotenv"

	"github.com/focusnest/server/internal/auth"
	"github.com/focusnest/server/internal/config"
	"github.com/focusnest/server/internal/db"
	httphandler "github.com/focusnest/server/internal/http"
	"github.com/focusnest/server/internal/http/handlers"
	"github.com/focusnest/server/internal/llm"
	"github.com/focusnest/server/internal/middleware"
	"github.com/focusnest/server/internal/notify"
	"github.com/focusnest/server/internal/repo"
	"github.com/focusnest/server/internal/scheduling"
	"github.com/focusnest/server/internal/task"
)

const (
	llmMaxRetries   = 2
	llmRetryBase    = 250 * time.Millisecond
	limiterWindow   = 10 * time.Minute
	limiterSweep    = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load .env from CWD or server/ so it works from repo root or server/ (env vars override)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("server/.env")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to open database", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		fatal("failed to run migrations", err)
	}

	// Repositories
	userRepo := repo.NewUserRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	taskRepo := repo.NewTaskRepo(database)

	// Auth
	var sender auth.OTPSender
	var authOpts []auth.Option
	if cfg.DevMode {
		logger.Warn("OTP dev mode enabled, codes are fixed and not emailed")
		sender = notify.NewDevSender(logger)
		authOpts = append(authOpts, auth.WithDevMode())
	} else {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewAuthService(userRepo, otpRepo, jwtService, auth.NewHasher(cfg.BcryptCost),
		sender, cfg.OTPSalt, logger, authOpts...)

	// Scheduling. Task creation degrades on gateway failure, so only the
	// standalone endpoints retry.
	gateway := llm.NewOpenAIGateway(llm.OpenAIConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, logger)
	retrying := llm.NewRetrying(gateway, llmMaxRetries, llmRetryBase, logger)
	taskService := task.NewService(taskRepo, userRepo, scheduling.NewEnricher(gateway, logger), logger)

	limits := httphandler.Limiters{
		Login:  middleware.NewRateLimiter(limiterWindow, 10),
		Verify: middleware.NewRateLimiter(limiterWindow, 20),
	}
	go limits.Login.Run(ctx, limiterSweep)
	go limits.Verify.Run(ctx, limiterSweep)

	router := httphandler.NewRouter(httphandler.Handlers{
		Auth: handlers.NewAuthHandler(authService, logger),
		User: handlers.NewUserHandler(authService, logger),
		AI: handlers.NewAIHandler(authService,
			scheduling.NewClassifier(retrying, scheduling.FailOnUnparseable, logger),
			scheduling.NewRecommender(retrying, logger),
			logger),
		Task: handlers.NewTaskHandler(taskService, logger),
	}, limits, jwtService)

	// WriteTimeout leaves room for two sequential completion calls on task create.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2*cfg.LLMTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed to start", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
