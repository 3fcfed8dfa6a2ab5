package pool

import (
	"context"
	"time"

	"wisefido-tenants/internal/oplog"

	"go.uber.org/zap"
)

const DefaultHealthInterval = 30 * time.Second

// HealthChecker 按固定周期巡检池内全部连接，独立于请求流量运行。
// 探测失败的条目先标记 unhealthy，再尝试一次重连；重连仍失败则整条淘汰，
// 后续对该 schema 的 Acquire 会透明重建。所有结果只进操作日志，从不上抛。
type HealthChecker struct {
	pool     *SchemaPool
	interval time.Duration
	ops      *oplog.Logger
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
}

func NewHealthChecker(p *SchemaPool, interval time.Duration, logger *zap.Logger, ops *oplog.Logger) *HealthChecker {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthChecker{
		pool:     p,
		interval: interval,
		ops:      ops,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动巡检 goroutine
func (h *HealthChecker) Start() {
	go h.loop()
}

func (h *HealthChecker) loop() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.CheckOnce(context.Background())
		}
	}
}

// Stop 停止巡检并等待当前一轮结束
func (h *HealthChecker) Stop() {
	close(h.stop)
	<-h.done
}

// CheckOnce 跑一轮巡检。单个条目的失败不影响同一轮内其他条目。
func (h *HealthChecker) CheckOnce(ctx context.Context) {
	for _, info := range h.pool.Snapshot() {
		h.checkEntry(ctx, info.Schema)
	}
}

func (h *HealthChecker) checkEntry(ctx context.Context, schemaName string) {
	err := h.pool.Probe(ctx, schemaName)
	if err == nil {
		h.pool.MarkHealthy(schemaName)
		return
	}

	h.pool.MarkUnhealthy(schemaName)
	h.ops.ConnectionEvent("probe_failed", schemaName, zap.Error(err))

	// 只做一次重连；再失败就淘汰，交给下一个 Acquire 重建
	if rerr := h.pool.Reconnect(ctx, schemaName); rerr != nil {
		h.pool.Evict(schemaName)
		h.ops.ConnectionEvent("evicted_unhealthy", schemaName, zap.Error(rerr))
		return
	}
	h.pool.MarkHealthy(schemaName)
	h.ops.ConnectionEvent("reconnected", schemaName)
}
