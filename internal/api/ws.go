// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/elasda977/Slice-Video/internal/progress"
)

// wsConn serializes writes: the broadcast pump and the request/reply loop
// both write to the same connection.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// ProgressSocket GET /ws/progress
//
// Subscribes the connection to terminal-transition events and answers
// "subscribe:<name>" client messages with the latest persisted snapshot.
func (h *Handler) ProgressSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		errResp(c, http.StatusBadRequest, "WebSocket upgrade failed", err.Error())
		return
	}

	client := &wsConn{conn: conn}
	id, ch := h.events.Subscribe()
	h.logger.Debug("observer %s connected", id)

	go func() {
		for event := range ch {
			if err := client.WriteJSON(event); err != nil {
				h.events.Unsubscribe(id)
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		text := string(message)
		if name, ok := strings.CutPrefix(text, "subscribe:"); ok {
			snap, err := h.manager.Progress(name)
			if err != nil {
				code := http.StatusInternalServerError
				if errors.Is(err, progress.ErrNoSnapshot) {
					code = http.StatusNotFound
				}
				client.WriteJSON(ErrorResponse{
					Code:    code,
					Message: "No conversion in progress for this video",
					Detail:  err.Error(),
				})
				continue
			}
			client.WriteJSON(snap)
		}
	}

	h.events.Unsubscribe(id)
	h.logger.Debug("observer %s disconnected", id)
	conn.Close()
}
