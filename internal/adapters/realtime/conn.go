package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// FrameHandler handles one inbound frame for a connection.
type FrameHandler func(ctx context.Context, c *Client, in InboundFrame)

// Serve pumps frames between ws and the hub until the peer disconnects or ctx
// is cancelled. It unregisters c before returning.
func Serve(ctx context.Context, hub *Hub, ws *websocket.Conn, c *Client, handle FrameHandler, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(ctx, ws, c, logger)
	}()

	readPump(ctx, hub, ws, c, handle, logger)
	hub.Unregister(c)
	cancel()
	<-done
	ws.Close()
}

func readPump(ctx context.Context, hub *Hub, ws *websocket.Conn, c *Client, handle FrameHandler, logger *slog.Logger) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "conn_id", c.ID, "err", err)
			}
			return
		}
		var in InboundFrame
		if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
			hub.Send(c, "error", map[string]string{"message": "malformed frame"})
			continue
		}
		handle(ctx, c, in)
	}
}

func writePump(ctx context.Context, ws *websocket.Conn, c *Client, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload, ok := <-c.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("websocket write failed", "conn_id", c.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
