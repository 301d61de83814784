package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"memberaccounts/config"
	_ "memberaccounts/docs"
	"memberaccounts/internal/adapters/auth"
	emailadapter "memberaccounts/internal/adapters/email"
	delivery "memberaccounts/internal/delivery/http"
	"memberaccounts/internal/delivery/http/controllers"
	"memberaccounts/internal/delivery/http/middleware"
	"memberaccounts/internal/domain"
	"memberaccounts/internal/events"
	"memberaccounts/internal/repository/postgres"
	"memberaccounts/internal/services"
)

// @title Member Accounts API
// @version 1.0
// @description Member account management: create, update, look up, and delete members. Creation triggers an asynchronous welcome email.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	memberRepo := postgres.NewMemberRepository(db)

	bus := events.New(logger)
	mailer, err := emailadapter.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, emailadapter.NewTemplateRenderer(), logger)
	bus.Subscribe(domain.EventMemberCreated, services.NewMemberCreatedListener(emailService))

	memberService := services.NewMemberService(memberRepo, bus, logger)

	var verifier domain.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewJWTTokens(cfg.JWTSecret)
	} else {
		logger.Warn("AUTH_JWT_SECRET not set, mutating routes are unauthenticated")
	}

	memberController := controllers.NewMemberController(logger, memberService)
	mux := delivery.NewRouter(memberController, verifier, logger)

	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	// Let in-flight welcome emails finish before exiting.
	bus.Wait()
}
