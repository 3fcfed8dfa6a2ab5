package oplog

import (
	"time"

	"go.uber.org/zap"
)

// Logger 数据库操作 / 连接生命周期事件的结构化日志 sink。
// 纯副作用组件：不持有状态、不抛错、不阻塞调用方（nil 安全，降级为 no-op）。
type Logger struct {
	z *zap.Logger
}

func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// Operation 记录单次数据库操作的结果（成功/失败、耗时、schema）
func (l *Logger) Operation(op, schemaName string, duration time.Duration, err error) {
	if l == nil || l.z == nil {
		return
	}
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("schema", schemaName),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.Bool("success", err == nil),
		zap.Time("timestamp", time.Now()),
	}
	if err != nil {
		l.z.Error("db operation failed", append(fields, zap.Error(err))...)
		return
	}
	l.z.Info("db operation", fields...)
}

// ConnectionEvent 记录连接生命周期事件（opened / evicted / reconnected / ...）
func (l *Logger) ConnectionEvent(event, schemaName string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	base := []zap.Field{
		zap.String("event", event),
		zap.String("schema", schemaName),
	}
	l.z.Info("connection event", append(base, fields...)...)
}

// Transaction 记录一次事务执行（包含的操作名 + 总耗时）
func (l *Logger) Transaction(schemaName string, operations []string, duration time.Duration) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Info("transaction",
		zap.String("schema", schemaName),
		zap.Strings("operations", operations),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
}
