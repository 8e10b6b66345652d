package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/PritStyling132/Rentpal-sub001/internal/config"
	"github.com/PritStyling132/Rentpal-sub001/internal/security"
	"github.com/PritStyling132/Rentpal-sub001/internal/service"
	"github.com/PritStyling132/Rentpal-sub001/internal/store/sqlite"
	"github.com/PritStyling132/Rentpal-sub001/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, db *sql.DB, registry *ws.Registry, rooms *ws.Rooms, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	userRepo := sqlite.NewUserRepo(db)
	convRepo := sqlite.NewConversationRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)
	presenceRepo := sqlite.NewPresenceRepo(db)

	// Services
	authSvc := service.NewAuthService(userRepo, presenceRepo, tokenSvc, passwordHasher)
	chatSvc := service.NewChatService(convRepo, msgRepo, presenceRepo, cfg.MaxMessageLength, cfg.MessagePageSize)

	relay := ws.NewRelay(registry, rooms, chatSvc)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Rentpal API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, userRepo))

			r.Post("/auth/logout", handleLogout(authSvc))
			r.Get("/auth/me", handleMe())

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(chatSvc))
				r.Get("/", handleListConversations(chatSvc))
				r.Post("/{conversationID}/contact", handleContactDecision(chatSvc))
				r.Get("/{conversationID}/messages", handleListMessages(chatSvc))
				r.Post("/{conversationID}/messages", handleCreateMessage(chatSvc, registry))
				r.Post("/{conversationID}/read", handleMarkConversationRead(chatSvc))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(relay, tokenSvc, cfg.CORSOrigins))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
