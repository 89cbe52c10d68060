// @title Training Portal API
// @version 1.0
// @description Training programs, enrollments, certificates and the training calendar.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trainingportal/config"
	_ "trainingportal/docs"
	"trainingportal/internal/adapters/auth"
	"trainingportal/internal/adapters/email"
	"trainingportal/internal/adapters/ical"
	delivery "trainingportal/internal/delivery/http"
	"trainingportal/internal/delivery/http/controllers"
	"trainingportal/internal/delivery/http/middleware"
	"trainingportal/internal/repository/postgres"
	"trainingportal/internal/services"

	_ "github.com/lib/pq"
)

const (
	bcryptCost      = 12
	maxOccurrences  = 2000
	shutdownTimeout = 15 * time.Second
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	styles, err := config.LoadCategoryStyles(cfg.CategoryStylesFile)
	if err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	programRepo := postgres.NewProgramRepository(db)
	enrollmentRepo := postgres.NewEnrollmentRepository(db)
	certRepo := postgres.NewCertificateRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	// Services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	emailService := services.NewEmailService(mailer, renderer, logger)
	userService := services.NewUserService(userRepo, roleRepo, auth.NewBcryptHasher(bcryptCost), jwtService, cfg.JWTExpiry, emailService, logger, cfg.RequestTimeout)
	certService := services.NewCertificateService(certRepo, programRepo, userRepo, emailService, logger, cfg.RequestTimeout)
	programService := services.NewProgramService(programRepo, enrollmentRepo, certService, cfg.RequestTimeout)
	calendarService := services.NewCalendarService(eventRepo, programRepo, enrollmentRepo, ical.NewEncoder("Training calendar"), services.CalendarConfig{
		Location:       cfg.Location,
		Styles:         styles,
		MaxOccurrences: maxOccurrences,
		Timeout:        cfg.RequestTimeout,
	})

	reminders := services.NewReminderJob(eventRepo, programRepo, enrollmentRepo, userRepo, emailService, cfg.Location, logger, cfg.RequestTimeout)
	scheduler, err := services.NewReminderScheduler(cfg.ReminderSchedule, reminders)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	mux := delivery.NewRouter(delivery.Controllers{
		Users:        controllers.NewUserController(logger, userService),
		Programs:     controllers.NewProgramController(logger, programService),
		Certificates: controllers.NewCertificateController(logger, certService),
		Calendar:     controllers.NewCalendarController(logger, calendarService, cfg.Location),
	}, jwtService, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
