package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/esaha/esaha/internal/config"
	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/chat"
	"github.com/esaha/esaha/internal/domain/emergency"
	"github.com/esaha/esaha/internal/domain/mood"
	"github.com/esaha/esaha/internal/domain/profile"
	"github.com/esaha/esaha/internal/domain/scheduling"
	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/internal/platform/cache"
	"github.com/esaha/esaha/internal/platform/db"
	"github.com/esaha/esaha/internal/platform/jobs"
	"github.com/esaha/esaha/internal/platform/mail"
	"github.com/esaha/esaha/internal/platform/middleware"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	root := &cobra.Command{
		Use:   "esaha-server",
		Short: "Esaha mental health support backend",
	}

	root.AddCommand(serveCmd(), workerCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger
	return logger
}

func newMailer(cfg *config.Config, logger zerolog.Logger) mail.Mailer {
	if cfg.MailEnabled() {
		return mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}
	return mail.NewNoop(logger)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Redis backs the slot cache and the task queues; both degrade
			// gracefully when it is not configured.
			slotStore := cache.NewNoop()
			var enqueuer *jobs.Enqueuer
			var reminders *jobs.ReminderManager
			if cfg.RedisURL != "" {
				opt, err := redis.ParseURL(cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("parse redis url: %w", err)
				}
				rdb := redis.NewClient(opt)
				defer rdb.Close()
				slotStore = cache.NewRedis(rdb)

				enqueuer, err = jobs.NewEnqueuer(cfg.RedisURL, logger)
				if err != nil {
					return err
				}
				defer enqueuer.Close()

				reminders, err = jobs.NewReminderManager(cfg.RedisURL, logger)
				if err != nil {
					return err
				}
			} else {
				logger.Warn().Msg("REDIS_URL not set, slot cache and background jobs disabled")
			}

			// Repositories
			specialistRepo := specialist.NewPgRepository(pool)
			apptRepo := appointment.NewPgRepository(pool)
			moodRepo := mood.NewPgRepository(pool)
			emergencyRepo := emergency.NewPgRepository(pool)
			profileRepo := profile.NewPgRepository(pool)
			chatRepo := chat.NewPgRepository(pool)

			// Services
			slotCache := scheduling.NewSlotCache(slotStore, logger)
			specialistSvc := specialist.NewService(specialistRepo, slotCache)
			apptSvc := appointment.NewService(apptRepo, specialistRepo, slotCache, reminders, logger)
			schedulingSvc := scheduling.NewService(
				apptRepo, specialistRepo, slotCache, enqueuer,
				cfg.SlotMinutes, cfg.BookingHorizonDays, logger)
			moodSvc := mood.NewService(moodRepo)
			emergencySvc := emergency.NewService(emergencyRepo, enqueuer, logger)
			profileSvc := profile.NewService(profileRepo)
			chatSvc := chat.NewService(chatRepo, specialistRepo)

			// HTTP server
			e := echo.New()
			e.HideBanner = true
			e.HidePort = true

			e.Use(echomw.RequestID())
			e.Use(middleware.RequestLogger(logger))
			e.Use(middleware.Recovery(logger))
			e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
				AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
			}))
			e.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())

			e.GET("/health", db.HealthHandler(pool))

			api := e.Group("/api/v1")
			if cfg.IsDev() && cfg.AuthIssuer == "" {
				api.Use(auth.DevAuthMiddleware())
			} else {
				jwksURL := cfg.AuthJWKSURL
				if jwksURL == "" {
					jwksURL, err = auth.DiscoverJWKSURL(ctx, cfg.AuthIssuer)
					if err != nil {
						return err
					}
				}
				api.Use(auth.JWTMiddleware(auth.JWTConfig{
					Issuer:   cfg.AuthIssuer,
					JWKSURL:  jwksURL,
					Audience: cfg.AuthAudience,
				}))
			}

			specialist.NewHandler(specialistSvc).RegisterRoutes(api)
			appointment.NewHandler(apptSvc).RegisterRoutes(api)
			scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
			mood.NewHandler(moodSvc).RegisterRoutes(api)
			emergency.NewHandler(emergencySvc).RegisterRoutes(api)
			profile.NewHandler(profileSvc).RegisterRoutes(api)
			chat.NewHandler(chatSvc).RegisterRoutes(api)

			// Graceful shutdown
			go func() {
				addr := ":" + cfg.Port
				logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if cfg.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required for the worker")
			}

			worker, err := jobs.NewWorker(cfg.RedisURL, newMailer(cfg, logger), logger)
			if err != nil {
				return err
			}

			go func() {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
				<-quit
				logger.Info().Msg("worker shutting down")
				worker.Shutdown()
			}()

			logger.Info().Msg("worker starting")
			return worker.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var dir string
	migrate.PersistentFlags().StringVar(&dir, "dir", "migrations", "migrations directory")

	newMigrator := func(ctx context.Context) (*db.Migrator, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		newLogger(cfg)
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2, 1)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, dir), pool.Close, nil
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := newMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return m.Up(cmd.Context())
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := newMigrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return m.Status(cmd.Context())
		},
	})

	return migrate
}
