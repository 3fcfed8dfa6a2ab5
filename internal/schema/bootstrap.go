package schema

import "fmt"

// CreateSchemaSQL 生成建 schema 语句（schema 名必须已通过 ValidName）
func CreateSchemaSQL(schemaName string) string {
	return fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schemaName)
}

// DropSchemaSQL 生成删 schema 语句（连同租户全部表一起删除）
func DropSchemaSQL(schemaName string) string {
	return fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, schemaName)
}

// BootstrapStatements 返回租户 schema 的初始建表 DDL。
// 三张业务表：sessions（外部通信会话 + 配对二维码）、contacts、messages，
// 加四个查询索引。语句顺序固定，外键依赖要求 sessions 先建。
func BootstrapStatements(schemaName string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sessions (
			session_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			status VARCHAR(32) NOT NULL DEFAULT 'disconnected',
			qr_code TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, schemaName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.contacts (
			contact_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES %s.sessions(session_id) ON DELETE CASCADE,
			phone VARCHAR(32) NOT NULL,
			display_name VARCHAR(255),
			is_group BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, schemaName, schemaName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.messages (
			message_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			session_id UUID NOT NULL REFERENCES %s.sessions(session_id) ON DELETE CASCADE,
			from_phone VARCHAR(32) NOT NULL,
			to_phone VARCHAR(32) NOT NULL,
			content TEXT,
			message_type VARCHAR(32) NOT NULL DEFAULT 'text',
			is_from_me BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, schemaName, schemaName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_sessions_status ON %s.sessions(status)`, schemaName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_contacts_session ON %s.contacts(session_id)`, schemaName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_messages_session ON %s.messages(session_id)`, schemaName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON %s.messages(sent_at)`, schemaName),
	}
}
