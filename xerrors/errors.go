// Package xerrors 提供带类型、业务码与调用栈的增强型错误。
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType 错误的大类
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidArg
	ErrNotFound
	ErrCanceled
	ErrUnavailable
)

// Error 增强型错误结构
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`    // 业务自定义错误码
	Message string         `json:"message"` // 对外展示的友好消息
	Detail  string         `json:"detail"`  // 对内调试的详细信息
	Cause   error          `json:"-"`       // 原始错误
	Stack   []string       `json:"stack"`   // 堆栈追踪
	Context map[string]any `json:"context"` // 上下文数据 (行号、坐标系等)
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %d: %s (Cause: %v)", e.Type.String(), e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %d: %s", e.Type.String(), e.Code, e.Message)
}

// Unwrap 实现 Go 1.13 解包接口
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按业务码比较，使 errors.Is 可以匹配由哨兵错误派生出的实例。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (t ErrorType) String() string {
	names := [...]string{"Unknown", "Internal", "InvalidArg", "NotFound", "Canceled", "Unavailable"}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("ErrorType(%d)", uint(t))
}

// --- 核心构造函数 ---

// New 创建新错误并自动捕获堆栈
func New(errType ErrorType, code int, message string, detail string, cause error) *Error {
	e := &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
		Context: make(map[string]any),
	}
	e.captureStack()
	return e
}

// captureStack 捕获当前调用栈 (深度限制 10 层)
func (e *Error) captureStack() {
	const depth = 10
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		e.Stack = append(e.Stack, fmt.Sprintf("%s:%d (%s)", frame.File, frame.Line, frame.Function))
		if !more || len(e.Stack) >= depth {
			break
		}
	}
}

// --- 链式 API ---

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Derive 以哨兵错误为模板创建新实例，保留类型与业务码，附加原因。
// 哨兵错误是包级共享变量，不能直接修改。
func (e *Error) Derive(cause error) *Error {
	d := New(e.Type, e.Code, e.Message, e.Detail, cause)
	return d
}

// --- 快捷构造工具 ---

func Internal(msg string, cause error) *Error {
	return New(ErrInternal, 500, msg, "", cause)
}

func InvalidArg(msg string) *Error {
	return New(ErrInvalidArg, 400, msg, "", nil)
}

// Wrap 包装现有错误并捕获堆栈。
// 如果 err 链上已有 *Error，则沿用其类型与业务码。
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := FromError(err); ok {
		return New(e.Type, e.Code, msg, e.Detail, err)
	}
	return New(errType, int(errType), msg, "", err)
}

// WrapInternal 快速包装内部错误
func WrapInternal(err error, msg string) *Error {
	return Wrap(err, ErrInternal, msg)
}

// FromError 沿错误链查找 *Error。
func FromError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ExitCode 把错误类型映射为命令行退出码。
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	e, ok := FromError(err)
	if !ok {
		return 1
	}
	switch e.Type {
	case ErrInvalidArg:
		return 2
	case ErrCanceled:
		return 130
	default:
		return 1
	}
}
