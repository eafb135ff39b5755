package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-events-api/api/swagger"
	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/cache"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/cors"
	"github.com/noah-isme/campus-events-api/pkg/storage"
)

// @title Campus Events API
// @version 1.0.0
// @description Campus event publishing, registration, attendance, certificates and reports
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	version, err := database.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logr.Info("database schema ready", zap.Uint("version", version))

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("report cache disabled, redis unreachable", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("prepare uploads dir: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	audit := repository.NewAuditRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ReportsTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, audit, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(service.UserServiceParams{
		Repo:           userRepo,
		Audit:          audit,
		Storage:        uploads,
		Validator:      validate,
		Logger:         logr,
		MaxUploadBytes: cfg.Uploads.MaxSizeBytes,
		URLPrefix:      cfg.Uploads.URLPrefix,
	})
	eventSvc := service.NewEventService(eventRepo, audit, cacheSvc, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, eventRepo, cacheSvc, metrics, logr)
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{
		Repo:          attendanceRepo,
		Registrations: registrationRepo,
		Events:        eventRepo,
		Reports:       cacheSvc,
		Audit:         audit,
		Metrics:       metrics,
		Validator:     validate,
		Logger:        logr,
	})
	certificateSvc := service.NewCertificateService(service.CertificateServiceParams{
		Events:        eventRepo,
		Users:         userRepo,
		Registrations: registrationRepo,
		Attendance:    attendanceSvc,
		Signer:        storage.NewCertificateSigner(cfg.Certificates.Secret),
		Metrics:       metrics,
		Logger:        logr,
		Issuer:        cfg.Certificates.Issuer,
	})
	reportSvc := service.NewReportService(reportRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(service.ExportServiceParams{Reports: reportSvc, Metrics: metrics, Logger: logr})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Repo:          dashboardRepo,
		Registrations: registrationRepo,
		Logger:        logr,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())
	r.MaxMultipartMemory = cfg.Uploads.MaxSizeBytes

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Users:        handler.NewUserHandler(userSvc),
		Events:       handler.NewEventHandler(eventSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Certificates: handler.NewCertificateHandler(certificateSvc),
		Reports:      handler.NewReportHandler(reportSvc, exportSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Metrics:      handler.NewMetricsHandler(metrics, db),
	}, handler.RouterConfig{
		Prefix:      cfg.APIPrefix,
		Tokens:      authSvc,
		Audit:       audit,
		AuthLimiter: middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		UploadsDir:  uploads.BaseDir(),
		UploadsURL:  cfg.Uploads.URLPrefix,
		EnableDocs:  cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
