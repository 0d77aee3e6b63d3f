package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/live"
	"github.com/Dosada05/club-system/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub          *live.Hub
	eventService services.EventService
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler: allowedOrigins - те же origin, что и в CORS; "*" разрешает любой.
func NewWebSocketHandler(hub *live.Hub, es services.EventService, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:          hub,
		eventService: es,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Не браузерные клиенты Origin не шлют.
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeEventWs подписывает персонал на обновления участия в событии.
// Клиент подключается к /ws/wydarzenia/{id}?token=<JWT>.
func (h *WebSocketHandler) ServeEventWs(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), principal, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if !access.CanViewParticipants(principal, event) {
		mapServiceErrorToHTTP(w, r, services.ErrForbiddenOperation)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		slog.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}

	room := live.EventRoom(eventID)
	if !live.NewClient(h.hub, conn, room).Serve() {
		slog.WarnContext(r.Context(), "websocket hub stopped, client rejected", slog.String("room", room))
		return
	}
	slog.InfoContext(r.Context(), "websocket client subscribed",
		slog.String("room", room), slog.Int("user_id", principal.ID))
}
