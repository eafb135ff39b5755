package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/logger"
)

// create-admin provisions an administrator account. The password is read
// from ADMIN_PASSWORD so it does not end up in shell history.
func main() {
	var name, email, department string
	flag.StringVar(&name, "name", "Administrator", "display name")
	flag.StringVar(&email, "email", "", "login email (required)")
	flag.StringVar(&department, "department", "", "optional department")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logr.Fatal("both -email and ADMIN_PASSWORD are required")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("migrate database", zap.Error(err))
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), repository.NewAuditRepository(db), validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	user, err := auth.ProvisionAdmin(ctx, models.RegisterRequest{
		Name:       name,
		Email:      email,
		Password:   password,
		Department: department,
	})
	if err != nil {
		logr.Fatal("provision admin", zap.Error(err))
	}
	logr.Info("admin account created", zap.String("id", user.ID), zap.String("email", user.Email))
}
