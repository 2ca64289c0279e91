/*
Package handler provides the HTTP handlers and routing setup for the chat backend.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/limiter"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/resp"
)

const (
	CreateRate   = 0.05
	CreateBurst  = 2
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
// It requires the chat.Gateway for realtime logic and the AppConfig for settings (like allowed origins).
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Info("Health check endpoint hit")

		data := map[string]string{
			"status":  "ok",
			"service": "Chat Backend",
		}
		resp.RespondData(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(deps.Verifier.RequireIdentity())

		api.Route("/conversations", func(conv chi.Router) {
			conv.Get("/", HandleListConversations(deps))
			conv.Post("/", HandleCreateConversation(deps))
			conv.Get("/{id}", HandleGetConversation(deps))
			conv.Get("/{id}/messages", HandleListConversationMessages(deps))
			conv.Post("/{id}/messages", HandleSendConversationMessage(deps))
		})

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.Get("/", HandleListRooms(deps))
			rooms.Post("/", http.HandlerFunc(createLimiter.Middleware(HandleCreateRoom(deps)).ServeHTTP))
			rooms.Get("/{id}", HandleGetRoom(deps))
			rooms.Post("/{id}/join", HandleJoinRoom(deps))
			rooms.Post("/{id}/leave", HandleLeaveRoom(deps))
			rooms.Get("/{id}/messages", HandleListRoomMessages(deps))
			rooms.Post("/{id}/messages", HandleSendRoomMessage(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
