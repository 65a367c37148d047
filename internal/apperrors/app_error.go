package apperrors

import (
	"errors"
	"net/http"
	"strings"

	"tinylink-go/constant"
)

// AppError 自定义错误类型
type AppError struct {
	Code         int
	MessageID    string         // i18n 消息 ID，为空时直接使用 Message
	TemplateData map[string]any // i18n 模板参数
	Message      string         // 默认（英文）消息
	Location     []string       // 出错字段路径，系统错误为 [":internal:"]
	Cause        error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsInternal 是否为系统内部错误
func (e *AppError) IsInternal() bool {
	return len(e.Location) > 0 && e.Location[0] == constant.LocationInternal
}

// WithCause 附加底层错误（只用于日志，不返回给调用方）
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithCode 创建通用业务错误
func WithCode(code int, messageID, message string, location ...string) *AppError {
	return &AppError{
		Code:      code,
		MessageID: messageID,
		Message:   message,
		Location:  location,
	}
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(messageID, message string, location ...string) *AppError {
	return WithCode(http.StatusBadRequest, messageID, message, location...)
}

// RequiredField 缺少必填字段
func RequiredField(location ...string) *AppError {
	return InvalidRequestError("error.required_field", "Required field", location...)
}

// ExtraNotAllowed 不允许的额外字段
func ExtraNotAllowed(location ...string) *AppError {
	return InvalidRequestError("error.extra_field", "Extra field not allowed", location...)
}

// TypeMismatch 字段类型错误
func TypeMismatch(expected string, location ...string) *AppError {
	err := InvalidRequestError("error.type_mismatch", "Field must be of type "+expected, location...)
	err.TemplateData = map[string]any{"Expected": expected}
	return err
}

// NotFoundError 短码不存在或已过期
func NotFoundError() *AppError {
	return WithCode(http.StatusNotFound, "error.not_found_or_expired", "Link not found or expired", "code")
}

// UnauthenticatedError 未提供密钥
func UnauthenticatedError() *AppError {
	return WithCode(http.StatusUnauthorized, "error.secret_required", "Secret is required", "header", constant.LinkSecretHeader)
}

// UnauthorizedError 密钥不匹配
func UnauthorizedError() *AppError {
	return WithCode(http.StatusForbidden, "error.secret_mismatch", "Secret does not match", "header", constant.LinkSecretHeader)
}

// TooManyRequestsError 触发限流
func TooManyRequestsError() *AppError {
	return WithCode(http.StatusTooManyRequests, "error.too_many_requests", "Too many requests", constant.LocationClient)
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return WithCode(http.StatusInternalServerError, "error.internal", "Internal server error", constant.LocationInternal)
}

// List 一次请求中的多个校验错误
type List []*AppError

func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, strings.Join(e.Location, ".")+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Code 取列表中最严重的状态码（含内部错误时为 500）
func (l List) Code() int {
	code := http.StatusBadRequest
	for _, e := range l {
		if e.Code > code {
			code = e.Code
		}
	}
	return code
}

// Flatten 将任意错误展开为 AppError 列表，未知错误视为系统错误
func Flatten(err error) List {
	var list List
	if errors.As(err, &list) {
		return list
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return List{appErr}
	}
	return List{SystemErrorDefault().WithCause(err)}
}
