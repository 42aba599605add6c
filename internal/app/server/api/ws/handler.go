package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"notesync/internal/app/server/api/http/apierror"
	"notesync/internal/app/server/api/http/middleware/auth"
)

// Handler GET /sync/ws. Подпись проверяется до апгрейда, как и у остальных защищенных маршрутов.
type Handler struct {
	hub      *Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, verifier auth.Verifier, log *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log.With(slog.String("component", "ws_handler")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	creds := auth.FromRequest(r)
	p, err := h.verifier.Verify(r.Context(), creds)
	if err != nil {
		h.log.Debug("websocket rejected",
			slog.String("device_id", creds.DeviceID),
			slog.String("error", err.Error()),
		)
		status, msg := apierror.StatusOf(err)
		writeError(w, status, msg)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ об ошибке
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(h.hub, conn, p.GroupID, p.DeviceID)
	if !h.hub.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apierror.Body{Message: msg})
}
