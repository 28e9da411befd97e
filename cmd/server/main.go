package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/talkspace/backend/internal/auth"
	"github.com/talkspace/backend/internal/config"
	"github.com/talkspace/backend/internal/handlers"
	"github.com/talkspace/backend/internal/signaling"
	"github.com/talkspace/backend/internal/store"
	"github.com/talkspace/backend/internal/ws"
)

func main() {
	// Load configuration from environment
	cfg := config.Load()

	// Open the database
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// Token authentication
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, st)

	// Room registry fan-out loop
	hub := ws.NewHub()
	go hub.Run()

	// Handlers
	wsHandler := ws.NewHandler(hub, authenticator, st, st)
	messageHandler := handlers.NewMessageHandler(st, hub)
	roomHandler := handlers.NewRoomHandler(st)
	signalHandler := signaling.NewHandler(signaling.NewStore())

	// Set up router with middleware
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// CORS configuration - reads from CORS_ORIGINS env var
	// Format: comma-separated list of origins
	corsOrigins := getCorsOrigins()
	log.Printf("CORS allowed origins: %v", corsOrigins)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", handlers.HealthCheck)

	// Live chat connections
	r.Get("/ws/{roomID}", wsHandler.ServeWS)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// WebRTC rendezvous; peers poll unauthenticated by design
		r.Route("/signal", signalHandler.Routes)

		// Room directory and the message side channel
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)

			r.Route("/rooms", func(r chi.Router) {
				r.Post("/", roomHandler.CreateRoom)
				r.Post("/direct", roomHandler.GetOrCreateDirectRoom)
				r.Get("/{id}", roomHandler.GetRoom)
				r.Post("/{id}/members", roomHandler.AddMember)
				r.Delete("/{id}", roomHandler.DeleteRoom)
				r.Get("/{id}/messages", messageHandler.GetMessages)
				r.Post("/{id}/files", messageHandler.ShareFiles)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Put("/{id}", messageHandler.EditMessage)
				r.Delete("/{id}", messageHandler.DeleteMessage)
			})
		})
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Talkspace backend starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// getCorsOrigins returns allowed CORS origins from environment or defaults
func getCorsOrigins() []string {
	originsEnv := os.Getenv("CORS_ORIGINS")
	if originsEnv == "" {
		// Default to localhost for development
		return []string{"http://localhost:5173", "http://localhost:3000"}
	}

	origins := strings.Split(originsEnv, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
