package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/app/server/ws"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/services"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/logger"
)

// WSHandler upgrades HTTP requests into realtime sessions. The bearer
// token rides in the query string because browser websocket clients cannot
// set headers; the session controller does the actual authentication.
type WSHandler struct {
	session *services.SessionController
}

func NewWSHandler(session *services.SessionController) *WSHandler {
	return &WSHandler{session: session}
}

func (h *WSHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.KindConversation)
}

func (h *WSHandler) Room(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.KindRoom)
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, kind domain.ChannelKind) {
	log := logger.FromContext(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		return
	}
	// The session outlives the HTTP request lifecycle.
	sessionCtx := context.WithoutCancel(r.Context())
	conn := ws.NewConn(sessionCtx, raw)
	ch := domain.Channel{Kind: kind, ID: channelID}
	if err := h.session.Run(sessionCtx, ch, token, conn); err != nil {
		log.InfoContext(r.Context(), "ws handler - session rejected", "channel", ch.String(), "err", err)
	}
}
