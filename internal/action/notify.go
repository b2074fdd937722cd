package action

import (
	"context"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// NotifyConfig configures the notify action — a logged, addressed message.
// There is no external channel (Slack/email/SMS) wired in this module; the
// sink is structured logging, matching the teacher's ExecutionLogger.
type NotifyConfig struct {
	Channel string `json:"channel"`
	Target  string `json:"target"`
	Message string `json:"message"`
}

type notifyAction struct {
	cfg NotifyConfig
}

func newNotifyAction(config map[string]any) (Action, error) {
	cfg, err := parseConfig[NotifyConfig](config)
	if err != nil {
		return nil, err
	}
	return &notifyAction{cfg: *cfg}, nil
}

func (a *notifyAction) Invoke(_ context.Context, nodeName string, _ any, _ *Context) error {
	telemetry.L().Info().
		Str("node", nodeName).
		Str("channel", a.cfg.Channel).
		Str("target", a.cfg.Target).
		Msg(a.cfg.Message)
	return nil
}
