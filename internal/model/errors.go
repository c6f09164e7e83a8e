package model

import (
	"errors"
	"fmt"
)

// ErrorKind はdispatch層のエラー種別
type ErrorKind string

const (
	KindUnknownCapability ErrorKind = "UnknownCapability" // 未登録のtool/resource/method
	KindInvalidURI        ErrorKind = "InvalidUri"        // リソースURIの形式不正
	KindNotFound          ErrorKind = "NotFound"          // 参照先が存在しない
	KindMissingField      ErrorKind = "MissingField"      // 必須フィールド欠落
	KindTypeMismatch      ErrorKind = "TypeMismatch"      // 型不一致
	KindInvalidArgument   ErrorKind = "InvalidArgument"   // 値が不正（サニタイズ後に空など）
	KindHandlerFailure    ErrorKind = "HandlerFailure"    // ハンドラー内部の予期しないエラー
)

// CapabilityError はerror kindを持つ構造化エラー
type CapabilityError struct {
	Kind    ErrorKind
	Message string
	Field   string // MissingField / TypeMismatch の対象フィールド
	Err     error
}

// Error implements the error interface
func (e *CapabilityError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// NewCapabilityError はCapabilityErrorを生成する
func NewCapabilityError(kind ErrorKind, format string, args ...any) *CapabilityError {
	return &CapabilityError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewFieldError はフィールド起因のCapabilityErrorを生成する
func NewFieldError(kind ErrorKind, field string, format string, args ...any) *CapabilityError {
	return &CapabilityError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsCapabilityError はerrをCapabilityErrorに変換する
// CapabilityErrorでない場合はHandlerFailureとしてラップ
func AsCapabilityError(err error) *CapabilityError {
	if err == nil {
		return nil
	}
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr
	}
	return &CapabilityError{
		Kind:    KindHandlerFailure,
		Message: err.Error(),
		Err:     err,
	}
}

// IsKind はerrが指定したkindのCapabilityErrorかどうかを返す
func IsKind(err error, kind ErrorKind) bool {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Kind == kind
	}
	return false
}
