package response

import (
	"time"
)

// Response 是一个通用的 API 响应结构
type Response[T any] struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      T            `json:"data,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// FieldError 单个错误：可读消息 + 字段路径
type FieldError struct {
	Message  string   `json:"message"`
	Location []string `json:"location"`
}

// OK 构造一个成功的响应
func OK[T any](data T, message string) *Response[T] {
	return &Response[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Errors 构造一个失败的响应，message 取第一个错误的消息
func Errors(errs []FieldError) *Response[any] {
	message := ""
	if len(errs) > 0 {
		message = errs[0].Message
	}
	return &Response[any]{
		Success:   false,
		Message:   message,
		Data:      nil,
		Errors:    errs,
		Timestamp: time.Now().UnixMilli(),
	}
}
