package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/domain"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/services"
	"github.com/TOSEEB/ChattApp-mini-whatsup/pkg/middleware"
)

type RoomsHandler struct {
	chat *services.ChatService
}

func NewRoomsHandler(chat *services.ChatService) *RoomsHandler {
	return &RoomsHandler{chat: chat}
}

type createRoomRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	room, err := h.chat.CreateRoom(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(roomView(room))
}

func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rooms, err := h.chat.ListRooms(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(rooms))
	for i := range rooms {
		out = append(out, roomView(&rooms[i]))
	}
	json.NewEncoder(w).Encode(out)
}

func (h *RoomsHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	if err := h.chat.JoinRoom(r.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrAlreadyRoomMember):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "failed to join room", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ch := domain.Channel{Kind: domain.KindRoom, ID: roomID}
	writeHistory(w, r, h.chat, userID, ch, limit)
}

func roomView(room *domain.Room) map[string]any {
	return map[string]any{
		"id":              room.ID,
		"name":            room.Name,
		"description":     room.Description,
		"creator_id":      room.CreatorID,
		"last_message_at": room.LastMessageAt,
		"created_at":      room.CreatedAt,
	}
}
