package sysprop

import (
	"errors"
	"fmt"
)

// 预定义错误
var (
	// ErrInvalidName 属性名包含 NUL 字节
	ErrInvalidName = errors.New("sysprop: property name contains a NUL byte")

	// ErrPropertyAbsent 属性不存在
	ErrPropertyAbsent = errors.New("sysprop: property is absent")

	// ErrUninitialized 属性存储尚未初始化
	ErrUninitialized = errors.New("sysprop: property store is not initialized")

	// ErrWaitTimedOut 等待超过了截止时间
	ErrWaitTimedOut = errors.New("sysprop: wait timed out")

	// ErrWaitFailed 原生等待在截止时间之前失败
	ErrWaitFailed = errors.New("sysprop: wait failed")

	// ErrReadCallbackNotCalled 原生读取没有调用回调
	ErrReadCallbackNotCalled = errors.New("sysprop: read callback was not called")

	// ErrMissingValue 回调收到了空指针
	ErrMissingValue = errors.New("sysprop: read callback got a NULL pointer instead of a string")

	// ErrInvalidEncoding 回调收到的字符串不是合法的 UTF-8
	ErrInvalidEncoding = errors.New("sysprop: read callback got a non-UTF-8 string")

	// ErrCallback 调用方提供的回调失败，配合 errors.Is 使用
	ErrCallback = errors.New("sysprop: callback failed")

	// ErrSetPropertyFailed 原生写入返回非零
	ErrSetPropertyFailed = errors.New("sysprop: set property failed")
)

// CallbackError 包装调用方回调返回的错误（或 panic）
type CallbackError struct {
	Err error
}

// Error 实现 error 接口
func (e *CallbackError) Error() string {
	return ErrCallback.Error() + ": " + e.Err.Error()
}

// Unwrap 返回调用方自己的错误
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrCallback) 成立
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallback
}

// AccessorOp 标识类型化访问器失败的阶段
type AccessorOp string

const (
	// OpFetch 读取属性失败
	OpFetch AccessorOp = "fetch"
	// OpSet 写入属性失败
	OpSet AccessorOp = "set"
	// OpParse 属性值无法解析为目标类型
	OpParse AccessorOp = "parse"
)

// AccessorError 是类型化访问器 Prop 返回的错误
type AccessorError struct {
	Op   AccessorOp
	Name string
	Err  error
}

// Error 返回包含阶段与属性名的错误描述
func (e *AccessorError) Error() string {
	switch e.Op {
	case OpFetch:
		return fmt.Sprintf("failed to fetch system property %s: %v", e.Name, e.Err)
	case OpSet:
		return fmt.Sprintf("failed to set system property %s: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("failed to parse the system property %s value: %v", e.Name, e.Err)
	}
}

// Unwrap 返回底层错误
func (e *AccessorError) Unwrap() error {
	return e.Err
}
