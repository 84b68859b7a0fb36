package finder

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorNumber 连接器错误码，客户端依据它翻译提示.
type ErrorNumber int

const (
	ErrNone                       ErrorNumber = 0
	ErrInvalidCommand             ErrorNumber = 10
	ErrInvalidType                ErrorNumber = 12
	ErrInvalidName                ErrorNumber = 102
	ErrUnauthorized               ErrorNumber = 103
	ErrAccessDenied               ErrorNumber = 104
	ErrInvalidExtension           ErrorNumber = 105
	ErrInvalidRequest             ErrorNumber = 109
	ErrUnknown                    ErrorNumber = 110
	ErrUploadedFileRenamed        ErrorNumber = 201
	ErrUploadedInvalid            ErrorNumber = 202
	ErrUploadedTooBig             ErrorNumber = 203
	ErrUploadedCorrupt            ErrorNumber = 204
	ErrUploadedWrongHTMLFile      ErrorNumber = 206
	ErrUploadedInvalidNameRenamed ErrorNumber = 207
)

// Error 连接器错误，Number 决定返回给客户端的错误码和 HTTP 状态.
type Error struct {
	Number  ErrorNumber
	Message string // 细节，只写日志
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("error %d", e.Number)
	}

	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus 返回错误对应的 HTTP 状态码.
func (e *Error) HTTPStatus() int {
	switch e.Number {
	case ErrUnauthorized, ErrAccessDenied:
		return http.StatusForbidden
	case ErrUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// AsError 把任意错误转换为 *Error，无法识别的错误视为 ErrUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	return &Error{Number: ErrUnknown, Err: err}
}

// NoUploadPresent 请求中没有上传文件.
func NoUploadPresent() *Error {
	return &Error{Number: ErrUploadedInvalid, Message: "no upload present"}
}

// InvalidUpload 上传内容不可接受，number 为 0 时使用 202.
func InvalidUpload(number ErrorNumber, message string) *Error {
	if number == ErrNone {
		number = ErrUploadedInvalid
	}

	return &Error{Number: number, Message: message}
}

// InvalidName 文件名不合法或为隐藏文件.
func InvalidName(name string) *Error {
	return &Error{Number: ErrInvalidName, Message: fmt.Sprintf("invalid file name %q", name)}
}

// InvalidExtension 扩展名不在允许列表中.
func InvalidExtension(name string) *Error {
	return &Error{Number: ErrInvalidExtension, Message: fmt.Sprintf("extension of %q is not allowed", name)}
}

// InvalidCommand 未注册的命令.
func InvalidCommand(name string) *Error {
	return &Error{Number: ErrInvalidCommand, Message: fmt.Sprintf("unknown command %q", name)}
}

// InvalidRequest 请求格式错误，例如方法不匹配或路径非法.
func InvalidRequest(message string) *Error {
	return &Error{Number: ErrInvalidRequest, Message: message}
}

// InvalidType 未知资源类型.
func InvalidType(name string) *Error {
	return &Error{Number: ErrInvalidType, Message: fmt.Sprintf("unknown resource type %q", name)}
}

// Unauthorized ACL 拒绝.
func Unauthorized(message string) *Error {
	return &Error{Number: ErrUnauthorized, Message: message}
}

// AccessDenied 存储层拒绝访问.
func AccessDenied(op string, err error) *Error {
	return &Error{Number: ErrAccessDenied, Op: op, Err: err}
}

// Unknown 包装基础设施错误.
func Unknown(op string, err error) *Error {
	return &Error{Number: ErrUnknown, Op: op, Err: err}
}
