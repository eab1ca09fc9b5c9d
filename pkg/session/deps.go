package session

import (
	"context"
	"time"

	"github.com/lokutor-ai/lokutor-gateway/pkg/autopress"
	"github.com/lokutor-ai/lokutor-gateway/pkg/config"
	"github.com/lokutor-ai/lokutor-gateway/pkg/modelsocket"
	"github.com/lokutor-ai/lokutor-gateway/pkg/notify"
	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
	"github.com/lokutor-ai/lokutor-gateway/pkg/telephony"
)

// Logger is the minimal structured-logging shape the orchestrator needs,
// matching the teacher's per-package Logger interface in pkg/orchestrator.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ModelDialer opens the downstream model socket for one call. Exposed as a
// func field (rather than a hardcoded modelsocket.Dial call) so tests can
// substitute a client dialed to an in-process fake server, per SPEC_FULL
// §10.4's mock-socket test style.
type ModelDialer func(ctx context.Context) (*modelsocket.Client, error)

// Deps are the gateway-wide collaborators a Call needs; one Deps is shared
// by every call the process handles.
type Deps struct {
	Config      config.Config
	RemoteConfig *remoteconfig.Provider
	REST        *telephony.RESTClient
	Logger      Logger
	CallLog     notify.Sink
	DialModel   ModelDialer
	RateLimit   *autopress.RateLimit
	PublicBaseURL string // e.g. https://gateway.example.com
	Registry    *CallRegistry // nil is fine: webhook dispatch is then unavailable
}

// AssistantName is the default spoken identity absent a VIP override (§4.5).
const AssistantName = "Trinity"

func (d Deps) idleTimeout() time.Duration {
	if d.Config.IdleHangupSecs <= 0 {
		return 180 * time.Second
	}
	return time.Duration(d.Config.IdleHangupSecs) * time.Second
}

func (d Deps) numberSilenceGrace() time.Duration {
	if d.Config.NumberSilenceGrace <= 0 {
		return 2500 * time.Millisecond
	}
	return d.Config.NumberSilenceGrace
}

func (d Deps) numberMinDigits() int {
	if d.Config.NumberMinDigits <= 0 {
		return 10
	}
	return d.Config.NumberMinDigits
}

func (d Deps) autoPressThreshold() float64 {
	if d.Config.AutoPressConf <= 0 {
		return 0.90
	}
	return d.Config.AutoPressConf
}
