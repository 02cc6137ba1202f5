// Command server runs the campus events API: REST routes, the real-time
// forum channel and the event status scheduler.
package main

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

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/email"
	"campusevents/internal/adapters/qrcode"
	"campusevents/internal/adapters/realtime"
	"campusevents/internal/adapters/webhook"
	httpdelivery "campusevents/internal/delivery/http"
	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/jobs"
	"campusevents/internal/repository/mongodb"
	"campusevents/internal/repository/postgres"
	"campusevents/internal/services"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Storage
	db, err := postgres.Open(startCtx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(startCtx, db); err != nil {
		return err
	}
	logger.Info("connected to postgres")

	mongoClient, mongoDB, err := mongodb.Connect(startCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	messages := mongodb.NewMessageStore(mongoDB)
	notifications := mongodb.NewNotificationStore(mongoDB)
	if err := mongodb.EnsureIndexes(startCtx, messages, notifications); err != nil {
		return fmt.Errorf("ensure mongo indexes: %w", err)
	}
	logger.Info("connected to mongo", "database", cfg.MongoDB)

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	resetRepo := postgres.NewPasswordResetRepository(db)

	// Adapters
	mailer, err := email.NewMailer(cfg.Mailer, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	jwt := auth.NewJWT(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)
	hub := realtime.NewHub(logger, 0)
	dispatcher := services.NewDispatcher(logger, cfg.SideEffects.Workers, cfg.SideEffects.Timeout())
	locker := services.NewEventLocker()

	// Services
	timeout := cfg.ContextTimeout
	authService := services.NewAuthService(userRepo, hasher, jwt, jwt, cfg.JWTExpiry, timeout)
	userService := services.NewUserService(userRepo, hasher, timeout)
	adminService := services.NewAdminService(userRepo, eventRepo, timeout)
	resetService := services.NewPasswordResetService(resetRepo, userRepo, hasher, auth.GeneratePassword, timeout)
	eventService := services.NewEventService(eventRepo, userRepo, webhook.NewDiscordNotifier(nil), dispatcher, locker, timeout)
	ticketService := services.NewTicketService(eventRepo, userRepo, qrcode.NewEncoder(0), services.NewEmailService(mailer, renderer), timeout)
	registrationService := services.NewRegistrationService(eventRepo, userRepo, ticketService, dispatcher, locker, timeout)
	paymentService := services.NewPaymentService(eventRepo, ticketService, dispatcher, locker, timeout)
	forumService := services.NewForumService(eventRepo, userRepo, messages, notifications, hub, cfg.Forum, logger, timeout)
	notificationService := services.NewNotificationService(notifications, cfg.Forum, timeout)

	// Scheduler
	scheduler, err := jobs.NewScheduler(logger, eventService, cfg.Scheduler.StatusSyncSpec, timeout)
	if err != nil {
		return err
	}
	scheduler.Start()

	// HTTP
	health := controllers.NewHealthController(logger, map[string]controllers.Check{
		"postgres": db.PingContext,
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
	})
	router := httpdelivery.NewRouter(logger, authService, cfg.CORS.AllowedOrigins, httpdelivery.Controllers{
		Auth:          controllers.NewAuthController(logger, authService),
		User:          controllers.NewUserController(logger, userService),
		Event:         controllers.NewEventController(logger, eventService),
		Registration:  controllers.NewRegistrationController(logger, registrationService, paymentService),
		Attendance:    controllers.NewAttendanceController(logger, ticketService),
		Forum:         controllers.NewForumController(logger, forumService),
		Notification:  controllers.NewNotificationController(logger, notificationService),
		Admin:         controllers.NewAdminController(logger, adminService),
		PasswordReset: controllers.NewPasswordResetController(logger, resetService),
		WS:            controllers.NewWSController(logger, hub, forumService, cfg.CORS.AllowedOrigins),
		Health:        health,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	shutdownErr := srv.Shutdown(shutdownCtx)
	scheduler.Stop(shutdownCtx)
	dispatcher.Wait()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}
	logger.Info("server stopped")
	return nil
}
