package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/services"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/logger"
	"github.com/TOSEEB/ChattApp-mini-whatsup/pkg/middleware"
)

type ConversationsHandler struct {
	chat *services.ChatService
}

func NewConversationsHandler(chat *services.ChatService) *ConversationsHandler {
	return &ConversationsHandler{chat: chat}
}

func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	views, err := h.chat.ListConversations(r.Context(), userID)
	if err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "conversations handler - list failed", "err", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(views))
	for _, v := range views {
		out = append(out, map[string]any{
			"id":                   v.Conversation.ID,
			"other_user_id":        v.OtherUser.ID,
			"other_username":       v.OtherUser.Username,
			"unread_count":         v.UnreadCount,
			"other_user_online":    v.OtherUserOnline,
			"other_user_last_seen": v.OtherUserLastSeen,
			"last_message_at":      v.Conversation.LastMessageAt,
			"created_at":           v.Conversation.CreatedAt,
		})
	}
	json.NewEncoder(w).Encode(out)
}

type createConversationRequest struct {
	Username string `json:"username" validate:"required"`
}

func (h *ConversationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conv, err := h.chat.StartConversation(r.Context(), userID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrSelfConversation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "failed to create conversation", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":         conv.ID,
		"user1_id":   conv.User1ID,
		"user2_id":   conv.User2ID,
		"created_at": conv.CreatedAt,
	})
}

// Messages returns recent history. Fetching history also runs the read
// sweep, matching what a live connect does.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ch := domain.Channel{Kind: domain.KindConversation, ID: convID}
	writeHistory(w, r, h.chat, userID, ch, limit)
}

// writeHistory is shared with the rooms handler.
func writeHistory(w http.ResponseWriter, r *http.Request, chat *services.ChatService, userID uuid.UUID, ch domain.Channel, limit int) {
	msgs, err := chat.History(r.Context(), userID, ch, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotParticipant) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "history failed", "channel", ch.String(), "err", err)
		http.Error(w, "failed to load messages", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":           m.ID,
			"sender_id":    m.SenderID,
			"content":      m.Content,
			"message_type": m.MessageType,
			"status":       m.Status,
			"is_encrypted": m.IsEncrypted,
			"reply_to_id":  m.ReplyToID,
			"created_at":   m.CreatedAt,
		})
	}
	json.NewEncoder(w).Encode(out)
}
