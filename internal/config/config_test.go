package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}
	if cfg.SchemaPrefix != "tenant_" {
		t.Errorf("Expected SCHEMA_PREFIX default 'tenant_', got '%s'", cfg.SchemaPrefix)
	}
	if cfg.Pool.MaxEntries != 20 {
		t.Errorf("Expected POOL_MAX_ENTRIES default 20, got %d", cfg.Pool.MaxEntries)
	}
	if cfg.Pool.IdleTTL != 5*time.Minute {
		t.Errorf("Expected POOL_IDLE_TTL default 5m, got %v", cfg.Pool.IdleTTL)
	}
	if cfg.Pool.EvictBatch != 5 {
		t.Errorf("Expected POOL_EVICT_BATCH default 5, got %d", cfg.Pool.EvictBatch)
	}
	if cfg.Pool.HealthInterval != 30*time.Second {
		t.Errorf("Expected HEALTH_CHECK_INTERVAL default 30s, got %v", cfg.Pool.HealthInterval)
	}
	if cfg.MQTT.Enabled {
		t.Error("Expected MQTT disabled by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SCHEMA_PREFIX", "t_")
	t.Setenv("POOL_MAX_ENTRIES", "50")
	t.Setenv("POOL_IDLE_TTL", "90s")
	t.Setenv("HEALTH_CHECK_INTERVAL", "1m")
	t.Setenv("MQTT_ENABLED", "true")

	cfg := Load()

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected DB_HOST 'db.internal', got '%s'", cfg.Database.Host)
	}
	if cfg.SchemaPrefix != "t_" {
		t.Errorf("Expected SCHEMA_PREFIX 't_', got '%s'", cfg.SchemaPrefix)
	}
	if cfg.Pool.MaxEntries != 50 {
		t.Errorf("Expected POOL_MAX_ENTRIES 50, got %d", cfg.Pool.MaxEntries)
	}
	if cfg.Pool.IdleTTL != 90*time.Second {
		t.Errorf("Expected POOL_IDLE_TTL 90s, got %v", cfg.Pool.IdleTTL)
	}
	if cfg.Pool.HealthInterval != time.Minute {
		t.Errorf("Expected HEALTH_CHECK_INTERVAL 1m, got %v", cfg.Pool.HealthInterval)
	}
	if !cfg.MQTT.Enabled {
		t.Error("Expected MQTT enabled")
	}
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	os.Clearenv()
	t.Setenv("POOL_MAX_ENTRIES", "not-a-number")
	t.Setenv("POOL_IDLE_TTL", "whenever")

	cfg := Load()

	if cfg.Pool.MaxEntries != 20 {
		t.Errorf("Expected fallback POOL_MAX_ENTRIES 20, got %d", cfg.Pool.MaxEntries)
	}
	if cfg.Pool.IdleTTL != 5*time.Minute {
		t.Errorf("Expected fallback POOL_IDLE_TTL 5m, got %v", cfg.Pool.IdleTTL)
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "secret", Database: "tenants", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=postgres password=secret dbname=tenants sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN = %q, want %q", got, want)
	}
}
