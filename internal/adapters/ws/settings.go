package ws

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/domain"
)

var validate = validator.New()

type settingsPayload struct {
	Type       string               `json:"type"`
	Settings   domain.SettingsPatch `json:"settings"`
	AdminToken string               `json:"adminToken,omitempty"`
}

func (ctl *Controller) handleUpdateSettings(ctx context.Context, c *Conn, data []byte) {
	var p settingsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad update-settings payload")
		ctl.sendError(c, "bad payload")
		return
	}
	if err := validate.Struct(p.Settings); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("invalid settings patch")
		ctl.sendError(c, "Invalid settings")
		return
	}
	ctl.Orch.UpdateSettings(ctx, c, p.Settings, p.AdminToken)
}

func (ctl *Controller) handleStartTimer(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad start-timer payload")
		return
	}
	ctl.Orch.StartTimer(ctx, c, p.AdminToken)
}

func (ctl *Controller) handleStopTimer(ctx context.Context, c *Conn, data []byte) {
	var p actionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad stop-timer payload")
		return
	}
	ctl.Orch.StopTimer(ctx, c, p.AdminToken)
}
