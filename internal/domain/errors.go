package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类，外部调用者用它区分 "已存在" / "不存在" / "基础设施故障"
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindNotFound     ErrorKind = "not_found"
	KindConnection   ErrorKind = "connection"
	KindProvisioning ErrorKind = "provisioning"
)

// Error 带分类的领域错误。ClientID 在已知租户上下文时填写，
// 便于调用方和日志定位具体租户。
type Error struct {
	Kind     ErrorKind
	ClientID string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewConflictError(clientID string) *Error {
	return &Error{Kind: KindConflict, ClientID: clientID, Message: fmt.Sprintf("tenant %q already exists", clientID)}
}

func NewNotFoundError(clientID string) *Error {
	return &Error{Kind: KindNotFound, ClientID: clientID, Message: fmt.Sprintf("tenant %q not found", clientID)}
}

func NewConnectionError(schema string, err error) *Error {
	return &Error{Kind: KindConnection, Message: fmt.Sprintf("failed to open connection for schema %q", schema), Err: err}
}

func NewProvisioningError(clientID, message string, err error) *Error {
	return &Error{Kind: KindProvisioning, ClientID: clientID, Message: message, Err: err}
}

// KindOf 返回错误的分类；非领域错误返回空串
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConnection(err error) bool   { return KindOf(err) == KindConnection }
func IsProvisioning(err error) bool { return KindOf(err) == KindProvisioning }
