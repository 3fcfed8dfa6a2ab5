package schema

import "regexp"

// client_id 允许小写字母/数字/下划线，3-32 位，首尾不允许下划线。
// schema 名由 client_id 派生后直接拼进 DDL，所以这里的白名单是注入防线，
// DTO 层校验之外 provisioning 侧必须再校验一次。
var (
	clientIDPattern   = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{1,30}[a-z0-9]$`)
	schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)
)

// ValidClientID 校验租户 client_id 格式
func ValidClientID(clientID string) bool {
	return clientIDPattern.MatchString(clientID)
}

// Name 由 client_id 派生 schema 名（确定性，同一 client_id 永远得到同一 schema）
func Name(prefix, clientID string) string {
	return prefix + clientID
}

// ValidName 校验最终 schema 名，任何 DDL 拼接前都要过这一关
func ValidName(schemaName string) bool {
	return schemaNamePattern.MatchString(schemaName)
}
