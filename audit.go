package authbridge

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/authbridge/internal/audit"
	"go.uber.org/zap"
)

// Audit event types emitted by the engine.
const (
	AuditSessionStarted     = "session_started"
	AuditSessionStartFailed = "session_start_failed"
	AuditSessionEnded       = "session_ended"
	AuditSessionsEndedAll   = "sessions_ended_all"
	AuditSignIn             = "sign_in"
	AuditInitialItemCreated = "initial_item_created"
	AuditBridgeMatched      = "bridge_matched"
	AuditBridgeFailed       = "bridge_failed"
)

type AuditEvent = audit.Event

type AuditSink = audit.Sink

type NoOpSink = audit.NoOpSink

type ChannelSink = audit.ChannelSink

type JSONWriterSink = audit.JSONWriterSink

type ZapSink = audit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink logs audit events through logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return audit.NewZapSink(logger)
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, data SessionData, sessionID string, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		ListKey:   data.ListKey,
		ItemID:    data.ItemID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}
