package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
)

// fakepg 假驱动：DSN 即 schema 名，通过共享状态注入开连/探测/执行失败，
// 让池和健康检查的行为可以在没有真实 Postgres 的情况下验证。

type fakeState struct {
	mu        sync.Mutex
	openCount map[string]int
	failOpen  map[string]bool
	failPings map[string]int // 接下来 N 次 ping 失败
	execErr   map[string]error
}

var fakeDB = &fakeState{
	openCount: map[string]int{},
	failOpen:  map[string]bool{},
	failPings: map[string]int{},
	execErr:   map[string]error{},
}

func (s *fakeState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openCount = map[string]int{}
	s.failOpen = map[string]bool{}
	s.failPings = map[string]int{}
	s.execErr = map[string]error{}
}

func (s *fakeState) recordOpen(schemaName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openCount[schemaName]++
}

func (s *fakeState) opens(schemaName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openCount[schemaName]
}

func (s *fakeState) setFailOpen(schemaName string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOpen[schemaName] = fail
}

func (s *fakeState) shouldFailOpen(schemaName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failOpen[schemaName]
}

func (s *fakeState) setFailPings(schemaName string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPings[schemaName] = n
}

func (s *fakeState) consumePingFailure(schemaName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPings[schemaName] > 0 {
		s.failPings[schemaName]--
		return true
	}
	return false
}

func (s *fakeState) setExecErr(schemaName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execErr[schemaName] = err
}

func (s *fakeState) execErrFor(schemaName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execErr[schemaName]
}

type fakeDriver struct{}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	return &fakeConn{schema: dsn}, nil
}

type fakeConn struct {
	schema string
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported by fakepg")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) { return &fakeTx{}, nil }

func (c *fakeConn) Ping(context.Context) error {
	if fakeDB.consumePingFailure(c.schema) {
		return fmt.Errorf("ping failed for schema %s", c.schema)
	}
	return nil
}

func (c *fakeConn) ExecContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Result, error) {
	if err := fakeDB.execErrFor(c.schema); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

type fakeTx struct{}

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

var registerFake sync.Once

func useFakeDriver(p *SchemaPool) {
	registerFake.Do(func() {
		sql.Register("fakepg", &fakeDriver{})
	})
	p.open = func(schemaName string) (*sql.DB, error) {
		fakeDB.recordOpen(schemaName)
		if fakeDB.shouldFailOpen(schemaName) {
			return nil, fmt.Errorf("connection refused")
		}
		return sql.Open("fakepg", schemaName)
	}
}
