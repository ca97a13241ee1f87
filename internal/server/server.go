// Package server wires the dependency graph and defines the HTTP routes.
// main.go stays minimal; everything between "config in" and "listening
// socket out" happens here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tahmid/skillswap/internal/auth"
	"github.com/tahmid/skillswap/internal/chat"
	"github.com/tahmid/skillswap/internal/handler"
	"github.com/tahmid/skillswap/internal/middleware"
	sqliteRepo "github.com/tahmid/skillswap/internal/repository/sqlite"
	"github.com/tahmid/skillswap/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	CORSOrigins        []string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain: DB → repositories → services →
// handlers → routes. Each layer receives only the interfaces it needs.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.OAuthRedirectURL,
	)

	registry := chat.NewRegistry(s.logger)

	skillService := service.NewSkillService(s.db.Skills(), s.logger)
	userService := service.NewUserService(s.db.Users(), skillService, s.logger)
	authService := service.NewAuthService(s.db.Users(), skillService, tokens, passwords, s.logger)
	connectionService := service.NewConnectionService(s.db.Connections(), s.db.Users(), s.logger)
	messageService := service.NewMessageService(s.db.Messages(), s.db.Users(), s.db.Connections(), registry, s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	skillHandler := handler.NewSkillHandler(skillService, s.logger)
	connectionHandler := handler.NewConnectionHandler(connectionService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, registry, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/google/login", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
		})

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", skillHandler.HandleList)
			r.Get("/{id}", skillHandler.HandleGetByID)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", skillHandler.HandleCreate)
				r.Put("/{id}", skillHandler.HandleUpdate)
				r.Delete("/{id}", skillHandler.HandleDelete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", userHandler.HandleList)
			r.Get("/me", userHandler.HandleMe)
			r.Put("/me", userHandler.HandleUpdateMe)
			r.Post("/me/skills/{kind}", userHandler.HandleAddSkill)
			r.Delete("/me/skills/{kind}/{skillId}", userHandler.HandleRemoveSkill)
			r.Get("/{id}", userHandler.HandleGetByID)
			// id-addressed aliases; the handlers reject a foreign id.
			r.Post("/{id}/skills/{kind}", userHandler.HandleAddSkill)
			r.Delete("/{id}/skills/{kind}/{skillId}", userHandler.HandleRemoveSkill)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/send", connectionHandler.HandleSend)
			r.Get("/pending", connectionHandler.HandlePending)
			r.Get("/accepted", connectionHandler.HandleAccepted)
			r.Get("/all", connectionHandler.HandleAll)
			r.Get("/status/{userId}", connectionHandler.HandleStatus)
			r.Put("/{id}/accept", connectionHandler.HandleAccept)
			r.Put("/{id}/reject", connectionHandler.HandleReject)
			r.Delete("/{id}/cancel", connectionHandler.HandleCancel)
			r.Delete("/{id}/remove", connectionHandler.HandleRemove)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", messageHandler.HandleSend)
			r.Get("/stream", messageHandler.HandleStream)
			r.Get("/unread/count", messageHandler.HandleUnreadCount)
			r.Get("/{userId}", messageHandler.HandleConversation)
		})
	})

	return nil
}

// Handler exposes the configured router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; Close is
// for callers that never Start, such as tests.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s,
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: the SSE message stream stays open indefinitely.
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
