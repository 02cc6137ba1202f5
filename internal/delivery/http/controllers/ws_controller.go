package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"campusevents/internal/adapters/realtime"
	h "campusevents/internal/delivery/http/helpers"
	"campusevents/internal/domain"

	"github.com/gorilla/websocket"
)

type joinFrame struct {
	EventID string `json:"eventId"`
}

type sendMessageFrame struct {
	EventID         string `json:"eventId"`
	Text            string `json:"text"`
	ParentMessageID string `json:"parentMessageId"`
}

type reactFrame struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type moderateFrame struct {
	MessageID string `json:"messageId"`
	EventID   string `json:"eventId"`
}

// WSController upgrades authenticated requests to the real-time channel and
// dispatches forum frames.
type WSController struct {
	Logger   *slog.Logger
	Hub      *realtime.Hub
	Forum    domain.ForumService
	Upgrader websocket.Upgrader
}

// NewWSController returns a controller whose upgrader accepts the given
// origins, or every origin when the list holds "*". With no list the
// upgrader keeps gorilla's same-origin check.
func NewWSController(logger *slog.Logger, hub *realtime.Hub, forum domain.ForumService, allowedOrigins []string) *WSController {
	return &WSController{
		Logger: logger,
		Hub:    hub,
		Forum:  forum,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin returns nil for an empty list so the upgrader falls back to
// its same-origin default.
func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	_, anyOrigin := allowed["*"]
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || anyOrigin {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Serve godoc
// @Summary Real-time channel
// @Description Upgrades to a WebSocket. Frames are JSON {type, data}. Pass the token as ?token= when headers cannot be set.
// @Tags forum
// @Param token query string false "Bearer token"
// @Success 101
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /ws [get]
func (c *WSController) Serve(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	ws, err := c.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.Logger.DebugContext(r.Context(), "websocket upgrade failed", "err", err)
		return
	}
	client := c.Hub.Register(p.UserID)
	c.Logger.DebugContext(r.Context(), "websocket connected", "conn_id", client.ID, "user_id", p.UserID)
	realtime.Serve(r.Context(), c.Hub, ws, client, c.HandleFrame, c.Logger)
}

// HandleFrame runs one client frame against the forum service.
func (c *WSController) HandleFrame(ctx context.Context, client *realtime.Client, in realtime.InboundFrame) {
	switch in.Type {
	case domain.FrameJoinForum:
		var f joinFrame
		if !c.decode(client, in, &f) {
			return
		}
		if err := c.Forum.CheckMember(ctx, f.EventID, client.UserID); err != nil {
			c.fail(ctx, client, in.Type, err)
			return
		}
		c.Hub.Join(client, f.EventID)
		c.Hub.Send(client, domain.FrameJoined, map[string]string{"eventId": f.EventID})

	case domain.FrameLeaveForum:
		if eventID := c.Hub.Leave(client); eventID != "" {
			c.Hub.Send(client, domain.FrameLeft, map[string]string{"eventId": eventID})
		}

	case domain.FrameSendMessage:
		var f sendMessageFrame
		if !c.decode(client, in, &f) {
			return
		}
		_, err := c.Forum.Post(ctx, domain.PostInput{
			EventID:  f.EventID,
			UserID:   client.UserID,
			Text:     f.Text,
			ParentID: f.ParentMessageID,
		})
		if err != nil {
			c.fail(ctx, client, in.Type, err)
		}

	case domain.FrameReact:
		var f reactFrame
		if !c.decode(client, in, &f) {
			return
		}
		if _, err := c.Forum.React(ctx, f.MessageID, f.Emoji, client.UserID); err != nil {
			c.fail(ctx, client, in.Type, err)
		}

	case domain.FramePinMessage:
		var f moderateFrame
		if !c.decode(client, in, &f) {
			return
		}
		if _, err := c.Forum.TogglePin(ctx, f.MessageID, client.UserID); err != nil {
			c.fail(ctx, client, in.Type, err)
		}

	case domain.FrameDeleteMessage:
		var f moderateFrame
		if !c.decode(client, in, &f) {
			return
		}
		if _, err := c.Forum.Delete(ctx, f.MessageID, client.UserID); err != nil {
			c.fail(ctx, client, in.Type, err)
		}

	default:
		c.Hub.Send(client, domain.FrameError, map[string]string{"message": "unknown frame type " + in.Type})
	}
}

func (c *WSController) decode(client *realtime.Client, in realtime.InboundFrame, dest any) bool {
	if len(in.Data) == 0 {
		c.Hub.Send(client, domain.FrameError, map[string]string{"type": in.Type, "message": "missing data"})
		return false
	}
	if err := json.Unmarshal(in.Data, dest); err != nil {
		c.Hub.Send(client, domain.FrameError, map[string]string{"type": in.Type, "message": "malformed data"})
		return false
	}
	return true
}

// fail reports err to the sender only. Unclassified errors are logged and hidden.
func (c *WSController) fail(ctx context.Context, client *realtime.Client, frameType string, err error) {
	msg := err.Error()
	if status, code := h.StatusFor(err); code == h.ErrCodeInternalError {
		c.Logger.ErrorContext(ctx, "frame failed", "type", frameType, "conn_id", client.ID, "status", status, "err", err)
		msg = "internal server error"
	}
	c.Hub.Send(client, domain.FrameError, map[string]string{"type": frameType, "message": msg})
}
