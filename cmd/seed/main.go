package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"calcapi/internal/auth"
	"calcapi/internal/config"
	"calcapi/internal/db"
	"calcapi/internal/handler"
	"calcapi/internal/logging"
	"calcapi/internal/repository"
	"calcapi/internal/router"
	"calcapi/internal/service"
)

func main() {
	source := flag.String("source", "seed/users.json", "path or http(s) URL of a JSON array of registration forms")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting seed script", zap.String("source", *source))

	// Connect to database
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB, false, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	users, err := loadUsers(*source)
	if err != nil {
		logger.Fatal("failed to load seed data", zap.Error(err))
	}
	logger.Info("loaded seed forms", zap.Int("count", len(users)))

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHashAlgo, cfg.BcryptCost)
	if err != nil {
		logger.Fatal("password hasher", zap.Error(err))
	}
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.JWTAccessExpiry,
		RefreshTTL: cfg.JWTRefreshExpiry,
	})
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), hasher, tokens, nil, logger)

	// Same schema checks the HTTP layer applies.
	v := router.NewValidator()
	forms := make([]service.RegisterInput, 0, len(users))
	for i, u := range users {
		if err := v.Validate(&u); err != nil {
			logger.Warn("skipping invalid seed form", zap.Int("index", i), zap.Error(err))
			continue
		}
		forms = append(forms, u.ToInput())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := service.SeedUsers(ctx, authService, forms, logger)
	if err != nil {
		logger.Fatal("failed to seed users", zap.Error(err))
	}

	logger.Info("seed completed",
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rejected", res.Rejected),
	)
}

// loadUsers reads seed forms from a local file or an http(s) URL.
func loadUsers(source string) ([]handler.RegisterRequest, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", source, err)
		}
		r = f
	}
	defer r.Close()

	var users []handler.RegisterRequest
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return users, nil
}
