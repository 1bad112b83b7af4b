package ws

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
)

type votePayload struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// actionPayload covers the authority-gated events. adminToken lets a caller
// exercise bearer authority without being the registered admin session.
type actionPayload struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId,omitempty"`
	AdminToken string `json:"adminToken,omitempty"`
}

func (ctl *Controller) handleVote(ctx context.Context, c *Conn, data []byte) {
	var p votePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad vote payload")
		return
	}
	ctl.Orch.Vote(ctx, c, p.Value)
}

func (ctl *Controller) handleReveal(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad reveal payload")
		return
	}
	ctl.Orch.Reveal(ctx, c, p.AdminToken)
}

func (ctl *Controller) handleReset(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad reset payload")
		return
	}
	ctl.Orch.Reset(ctx, c, p.AdminToken)
}

func (ctl *Controller) handleDeleteEstimate(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad delete-estimate payload")
		return
	}
	ctl.Orch.DeleteEstimate(ctx, c, core.SessionID(p.SessionID), p.AdminToken)
}

func (ctl *Controller) handleClearUser(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad clear-user payload")
		return
	}
	ctl.Orch.ClearUser(ctx, c, core.SessionID(p.SessionID), p.AdminToken)
}

func (ctl *Controller) handleClearAllParticipants(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad clear-all payload")
		return
	}
	ctl.Orch.ClearAllParticipants(ctx, c, p.AdminToken)
}
