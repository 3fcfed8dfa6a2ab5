package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wisefido-tenants/internal/domain"
	"wisefido-tenants/internal/oplog"
	"wisefido-tenants/internal/schema"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxEntries = 20
	DefaultIdleTTL    = 5 * time.Minute
	DefaultEvictBatch = 5

	probeTimeout = 5 * time.Second
)

// Config 连接池配置
type Config struct {
	// DSN key=value 形式的基础连接串（不含 search_path，池为每个 schema 追加）
	DSN        string
	MaxEntries int           // 池容量（默认 20）
	IdleTTL    time.Duration // 空闲淘汰阈值（默认 5 分钟）
	EvictBatch int           // 单次淘汰上限（默认 5）
}

type entry struct {
	db       *sql.DB
	lastUsed time.Time
	healthy  bool
}

// EntryInfo 池条目快照（健康检查器遍历用，不暴露内部句柄）
type EntryInfo struct {
	Schema   string
	LastUsed time.Time
	Healthy  bool
}

// SchemaPool schema -> 连接 的有界缓存。
// 每个条目是绑定到租户 schema 的单连接 *sql.DB（search_path 固定）。
// 显式注入，不做包级单例，测试可以各开各的池。
type SchemaPool struct {
	mu      sync.Mutex
	entries map[string]*entry

	cfg    Config
	open   func(schemaName string) (*sql.DB, error)
	group  singleflight.Group
	ops    *oplog.Logger
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger, ops *oplog.Logger) *SchemaPool {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.EvictBatch <= 0 {
		cfg.EvictBatch = DefaultEvictBatch
	}
	p := &SchemaPool{
		entries: make(map[string]*entry),
		cfg:     cfg,
		ops:     ops,
		logger:  logger,
	}
	p.open = p.openPostgres
	return p
}

func (p *SchemaPool) openPostgres(schemaName string) (*sql.DB, error) {
	dsn := p.cfg.DSN + " search_path=" + schemaName
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// 每个 schema 一条物理连接，池的容量语义落在条目数上
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// Acquire 返回绑定到指定 schema 的连接。命中缓存直接返回并刷新 lastUsed；
// 未命中时经 singleflight 建连，并发首次访问同一 schema 只会打开一条连接。
// 建连失败返回 ConnectionError，池内不留任何半成品条目。
func (p *SchemaPool) Acquire(ctx context.Context, schemaName string) (*sql.DB, error) {
	if !schema.ValidName(schemaName) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid schema name %q", schemaName))
	}
	if db := p.touch(schemaName); db != nil {
		return db, nil
	}

	v, err, _ := p.group.Do(schemaName, func() (any, error) {
		// singleflight 排队期间条目可能已由前一个 winner 写入
		if db := p.touch(schemaName); db != nil {
			return db, nil
		}
		db, err := p.open(schemaName)
		if err != nil {
			return nil, domain.NewConnectionError(schemaName, err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, domain.NewConnectionError(schemaName, err)
		}

		p.mu.Lock()
		if len(p.entries) >= p.cfg.MaxEntries {
			p.evictIdleLocked(time.Now())
		}
		// 容量压力下没有足够旧的空闲条目时仍然放行新连接
		// （可用性优先于硬上限，这是刻意保留的行为）
		p.entries[schemaName] = &entry{db: db, lastUsed: time.Now(), healthy: true}
		p.mu.Unlock()

		p.ops.ConnectionEvent("opened", schemaName)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// touch 命中时刷新 lastUsed 并返回句柄，未命中返回 nil
func (p *SchemaPool) touch(schemaName string) *sql.DB {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[schemaName]; ok {
		e.lastUsed = time.Now()
		return e.db
	}
	return nil
}

// RunInTransaction 获取连接并在事务内执行 fn；成功提交，失败回滚并原样抛回
// fn 的错误（记日志后）。operations 仅用于日志标识这笔事务做了什么。
func (p *SchemaPool) RunInTransaction(ctx context.Context, schemaName string, operations []string, fn func(*sql.Tx) error) error {
	db, err := p.Acquire(ctx, schemaName)
	if err != nil {
		return err
	}

	start := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		p.ops.Operation("begin_tx", schemaName, time.Since(start), err)
		return domain.NewConnectionError(schemaName, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		p.ops.Operation(strings.Join(operations, ","), schemaName, time.Since(start), err)
		return err
	}
	if err := tx.Commit(); err != nil {
		p.ops.Operation("commit", schemaName, time.Since(start), err)
		return err
	}

	p.ops.Transaction(schemaName, operations, time.Since(start))
	return nil
}

// evictIdleLocked 容量压力下淘汰空闲连接：只淘汰空闲超过 IdleTTL 的条目，
// 最旧优先，单次最多 EvictBatch 条。调用方必须持有 p.mu。
func (p *SchemaPool) evictIdleLocked(now time.Time) {
	type candidate struct {
		schemaName string
		lastUsed   time.Time
	}
	var idle []candidate
	for s, e := range p.entries {
		if now.Sub(e.lastUsed) > p.cfg.IdleTTL {
			idle = append(idle, candidate{schemaName: s, lastUsed: e.lastUsed})
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].lastUsed.Before(idle[j].lastUsed) })

	for i := 0; i < len(idle) && i < p.cfg.EvictBatch; i++ {
		s := idle[i].schemaName
		_ = p.entries[s].db.Close()
		delete(p.entries, s)
		p.ops.ConnectionEvent("evicted_idle", s, zap.Time("last_used", idle[i].lastUsed))
	}
}

// Snapshot 返回当前池条目的快照（健康检查器遍历用）
func (p *SchemaPool) Snapshot() []EntryInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	infos := make([]EntryInfo, 0, len(p.entries))
	for s, e := range p.entries {
		infos = append(infos, EntryInfo{Schema: s, LastUsed: e.lastUsed, Healthy: e.healthy})
	}
	return infos
}

// Probe 对指定 schema 的池内连接做一次存活探测；条目不存在视为无事可做
func (p *SchemaPool) Probe(ctx context.Context, schemaName string) error {
	p.mu.Lock()
	e, ok := p.entries[schemaName]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return e.db.PingContext(probeCtx)
}

// MarkHealthy / MarkUnhealthy 只供健康检查器更新条目健康位
func (p *SchemaPool) MarkHealthy(schemaName string)   { p.setHealthy(schemaName, true) }
func (p *SchemaPool) MarkUnhealthy(schemaName string) { p.setHealthy(schemaName, false) }

func (p *SchemaPool) setHealthy(schemaName string, healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[schemaName]; ok {
		e.healthy = healthy
	}
}

// Reconnect 关闭旧句柄并以同一 schema 绑定重开一条连接。
// 旧句柄在重开前已关闭，所以重开失败时条目会被立即移出池，
// 不能留给后续 Acquire 命中一个已关闭的 *sql.DB。
func (p *SchemaPool) Reconnect(ctx context.Context, schemaName string) error {
	p.mu.Lock()
	old, ok := p.entries[schemaName]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("schema %q not pooled", schemaName)
	}

	_ = old.db.Close()
	db, err := p.open(schemaName)
	if err != nil {
		p.removeIfSame(schemaName, old)
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		p.removeIfSame(schemaName, old)
		return err
	}

	p.mu.Lock()
	cur, ok := p.entries[schemaName]
	if ok && cur == old {
		cur.db = db
		cur.healthy = true
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	// 条目在重连期间被移除或替换，丢弃新句柄
	_ = db.Close()
	return nil
}

// removeIfSame 把仍指向 old 的条目移出池。old 的句柄已由调用方关闭，
// 条目在此期间被替换过则不动。
func (p *SchemaPool) removeIfSame(schemaName string, old *entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.entries[schemaName]; ok && cur == old {
		delete(p.entries, schemaName)
	}
}

// Evict 关闭并移除指定 schema 的条目；下一个调用方会透明地重新建连
func (p *SchemaPool) Evict(schemaName string) {
	p.mu.Lock()
	e, ok := p.entries[schemaName]
	if ok {
		delete(p.entries, schemaName)
	}
	p.mu.Unlock()
	if ok {
		_ = e.db.Close()
		p.ops.ConnectionEvent("evicted", schemaName)
	}
}

// Contains 判断指定 schema 当前是否在池内
func (p *SchemaPool) Contains(schemaName string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[schemaName]
	return ok
}

// Len 返回当前池条目数
func (p *SchemaPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// CloseAll 关闭全部池内连接（进程退出时调用）
func (p *SchemaPool) CloseAll() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*entry)
	p.mu.Unlock()
	for s, e := range entries {
		_ = e.db.Close()
		p.ops.ConnectionEvent("closed", s)
	}
}
