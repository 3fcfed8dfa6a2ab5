package oplog

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// 日志 sink 是纯副作用组件：nil *Logger 和 nil zap 都必须降级为 no-op
func TestLogger_NilReceiverIsNoop(t *testing.T) {
	var l *Logger
	l.Operation("create_schema", "tenant_acme", time.Millisecond, nil)
	l.Operation("create_schema", "tenant_acme", time.Millisecond, errors.New("boom"))
	l.ConnectionEvent("opened", "tenant_acme")
	l.ConnectionEvent("evicted", "tenant_acme", zap.Int("extra", 1))
	l.Transaction("tenant_acme", []string{"create_tables"}, time.Millisecond)
}

func TestLogger_NilZapIsNoop(t *testing.T) {
	l := New(nil)
	l.Operation("drop_schema", "tenant_acme", time.Millisecond, errors.New("boom"))
	l.ConnectionEvent("closed", "tenant_acme")
	l.Transaction("tenant_acme", nil, 0)
}

func TestLogger_WithZap(t *testing.T) {
	l := New(zap.NewNop())
	l.Operation("create_schema", "tenant_acme", 3*time.Millisecond, nil)
	l.Operation("create_schema", "tenant_acme", 3*time.Millisecond, errors.New("boom"))
	l.ConnectionEvent("reconnected", "tenant_acme", zap.Error(errors.New("previous failure")))
	l.Transaction("tenant_acme", []string{"create_tables", "create_indexes"}, 3*time.Millisecond)
}
