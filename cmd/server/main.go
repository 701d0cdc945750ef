package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civic-complaints/internal/classifier"
	"civic-complaints/internal/config"
	"civic-complaints/internal/domain"
	"civic-complaints/internal/evidence"
	apphttp "civic-complaints/internal/http"
	"civic-complaints/internal/repository/sqlite"
	"civic-complaints/internal/service"
	"civic-complaints/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	complaintRepo := sqlite.NewComplaintRepository(db)

	freshUsers, err := userRepo.Init(ctx)
	if err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := complaintRepo.Init(ctx); err != nil {
		logger.Fatalf("init complaint repository: %v", err)
	}

	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
	authService, err := service.NewAuthService(userRepo, tokens, service.AuthConfig{
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatalf("setup auth: %v", err)
	}

	if freshUsers {
		seedAdmin(ctx, authService, cfg, logger)
	}

	complaintCfg := service.ComplaintConfig{Logger: logger}
	if cfg.ArchiveEnabled() {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		complaintCfg.Archive = evidence.NewArchive(storageSvc, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	} else {
		logger.Info("no storage bucket configured, evidence stays inline only")
	}
	complaintService := service.NewComplaintService(complaintRepo, authService, classifier.New(nil), complaintCfg)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, complaintService, apphttp.Options{
		BasePath:     cfg.Server.BasePath,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (api under %s)", cfg.Server.Addr, cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// seedAdmin creates the default administrator on a fresh database.
func seedAdmin(ctx context.Context, auth service.AuthService, cfg config.Config, logger *logrus.Logger) {
	admin, err := auth.CreateAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return
	case err != nil:
		logger.Fatalf("seed admin: %v", err)
	}
	logger.WithField("username", admin.Username).Info("default admin created")
	if cfg.Auth.AdminPassword == "admin123" {
		logger.Warn("default admin uses the stock password; change it or set CIVIC_AUTH_ADMINPASSWORD")
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving evidence to s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
