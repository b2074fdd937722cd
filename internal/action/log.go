package action

import (
	"context"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// LogConfig configures the log action.
type LogConfig struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type logAction struct {
	cfg LogConfig
}

func newLogAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[LogConfig](config)
	if err != nil {
		return nil, err
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return &logAction{cfg: *cfg}, nil
}

func (a *logAction) Invoke(_ context.Context, nodeName string, payload any, actx *Context) error {
	evt := telemetry.L().Info()
	switch a.cfg.Level {
	case "debug":
		evt = telemetry.L().Debug()
	case "warn":
		evt = telemetry.L().Warn()
	case "error":
		evt = telemetry.L().Error()
	}
	msg := a.cfg.Message
	if msg == "" {
		msg = "action log"
	}
	evt.Str("node", nodeName).Interface("payload", payload).Msg(msg)
	return nil
}
