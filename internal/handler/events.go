package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/set-night/bountyhub/internal/config"
	"github.com/set-night/bountyhub/internal/middleware"
)

const pongWait = config.WSPingInterval + config.WSWriteTimeout

// events streams the caller's committed ledger entries over a websocket.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountID(r.Context())

	// Subscribe before the upgrade so nothing committed after the handshake
	// is missed.
	ch, cancel := h.bus.SubscribeAccount(accountID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "account_id", accountID, "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(config.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(config.WSWriteTimeout))
			if err := conn.WriteJSON(newEventView(ev)); err != nil {
				slog.Debug("websocket write failed", "account_id", accountID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(config.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
