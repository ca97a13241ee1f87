// Package main is the entry point for the skillswap API server.
// Its job is limited to reading configuration, building the logger, and
// starting the server; everything else lives in internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tahmid/skillswap/internal/server"
)

func main() {
	// A missing .env file is fine — real deployments set the environment
	// directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/skillswap.db"
	}
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	corsOrigins := []string{"http://localhost:3000"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsOrigins = strings.Split(origins, ",")
	}

	srv, err := server.New(server.Config{
		Port:               port,
		DBPath:             dbPath,
		JWTSecret:          jwtSecret,
		CORSOrigins:        corsOrigins,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   os.Getenv("OAUTH_REDIRECT_URL"),
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
