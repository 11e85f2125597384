package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/app/server/handlers"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/services"
	"github.com/TOSEEB/ChattApp-mini-whatsup/pkg/middleware"
)

type Server struct {
	mux      *http.ServeMux
	addr     string
	name     string
	log      *slog.Logger
	tokenSvc *services.TokenService

	authHandler  *handlers.AuthHandler
	convsHandler *handlers.ConversationsHandler
	roomsHandler *handlers.RoomsHandler
	wsHandler    *handlers.WSHandler
}

func NewServer(
	log *slog.Logger,
	name, addr string,
	userSvc *services.UserService,
	tokenSvc *services.TokenService,
	chatSvc *services.ChatService,
	sessionSvc *services.SessionController,
) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		addr:         addr,
		name:         name,
		log:          log,
		tokenSvc:     tokenSvc,
		authHandler:  handlers.NewAuthHandler(userSvc),
		convsHandler: handlers.NewConversationsHandler(chatSvc),
		roomsHandler: handlers.NewRoomsHandler(chatSvc),
		wsHandler:    handlers.NewWSHandler(sessionSvc),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)

	// Public routes
	s.mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	s.mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Protected REST routes
	s.mux.Handle("GET /api/conversations", auth(http.HandlerFunc(s.convsHandler.List)))
	s.mux.Handle("POST /api/conversations", auth(http.HandlerFunc(s.convsHandler.Create)))
	s.mux.Handle("GET /api/conversations/{id}/messages", auth(http.HandlerFunc(s.convsHandler.Messages)))
	s.mux.Handle("GET /api/rooms", auth(http.HandlerFunc(s.roomsHandler.List)))
	s.mux.Handle("POST /api/rooms", auth(http.HandlerFunc(s.roomsHandler.Create)))
	s.mux.Handle("POST /api/rooms/{id}/join", auth(http.HandlerFunc(s.roomsHandler.Join)))
	s.mux.Handle("GET /api/rooms/{id}/messages", auth(http.HandlerFunc(s.roomsHandler.Messages)))

	// Realtime routes authenticate inside the session controller.
	s.mux.HandleFunc("GET /ws/conversation/{id}", s.wsHandler.Conversation)
	s.mux.HandleFunc("GET /ws/room/{id}", s.wsHandler.Room)
}

func (s *Server) Start() error {
	handler := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.name)(s.mux),
	)
	server := &http.Server{
		Addr:        s.addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would sever long-lived websocket sessions.
	}
	s.log.Info("server starting", "addr", s.addr)
	return server.ListenAndServe()
}
