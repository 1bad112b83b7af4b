package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/app"
	"github.com/vividbreeze/planning-poker/internal/core"
)

// joinPayload covers every room-entry event. sessionId overrides the
// cookie-issued fallback so a browser tab keeps one identity across
// reconnects; adminToken is the optional bearer credential.
type joinPayload struct {
	Type       string `json:"type"`
	Room       string `json:"room"`
	SessionID  string `json:"sessionId,omitempty"`
	Name       string `json:"name,omitempty"`
	AdminToken string `json:"adminToken,omitempty"`
}

func (p *joinPayload) sid(fallback core.SessionID) core.SessionID {
	if p.SessionID != "" {
		return core.SessionID(p.SessionID)
	}
	return fallback
}

func (ctl *Controller) handleCreateRoom(ctx context.Context, sid core.SessionID, c *Conn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad create-room payload")
		ctl.sendError(c, "bad payload")
		return
	}
	actor := p.sid(sid)
	if !ctl.limiter.Allow(actor) {
		ctl.sendError(c, "Too many attempts")
		return
	}
	ctl.Orch.CreateRoom(ctx, c, actor, p.Name)
}

func (ctl *Controller) handleJoinRoom(ctx context.Context, sid core.SessionID, c *Conn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad join-room payload")
		ctl.sendError(c, "bad payload")
		return
	}
	actor := p.sid(sid)
	if !ctl.limiter.Allow(actor) {
		ctl.sendError(c, "Too many attempts")
		return
	}
	ctl.Orch.JoinRoom(ctx, c, app.JoinParams{
		RoomID:     core.RoomID(p.Room),
		SessionID:  actor,
		Name:       p.Name,
		AdminToken: p.AdminToken,
	})
}

func (ctl *Controller) handleJoinAsAdmin(ctx context.Context, sid core.SessionID, c *Conn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad join-as-admin payload")
		ctl.sendError(c, "bad payload")
		return
	}
	ctl.Orch.JoinAsAdmin(ctx, c, app.JoinParams{
		RoomID:     core.RoomID(p.Room),
		SessionID:  p.sid(sid),
		Name:       p.Name,
		AdminToken: p.AdminToken,
	})
}

// ensure-room claims an unclaimed identifier for the visitor; check-room only
// probes. Both answer with a room-state snapshot when the room is live.
func (ctl *Controller) handleEnsureRoom(ctx context.Context, eventType string, sid core.SessionID, c *Conn, data []byte) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad ensure-room payload")
		ctl.sendError(c, "bad payload")
		return
	}
	if eventType == "check-room" {
		ctl.Orch.CheckRoom(ctx, c, core.RoomID(p.Room))
		return
	}
	actor := p.sid(sid)
	if !ctl.limiter.Allow(actor) {
		ctl.sendError(c, "Too many attempts")
		return
	}
	ctl.Orch.EnsureRoom(ctx, c, actor, core.RoomID(p.Room), p.Name)
}
