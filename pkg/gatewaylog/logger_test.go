package gatewaylog

import "testing"

func TestLoggerMethodsDoNotPanic(t *testing.T) {
	l := New(false).With("CA1")
	l.Debug("call started")
	l.Info("greeting sent", "voice", "alloy")
	l.Warn("config fetch failed", "err", "timeout")
	l.Error("hangup failed", "err", "500", "callID", "CA1")
}
