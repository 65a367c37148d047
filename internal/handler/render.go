package handler

import (
	"net/http"

	"tinylink-go/internal/apperrors"
	"tinylink-go/internal/service"
	"tinylink-go/response"
)

// rendered 操作结果到 HTTP 响应的映射，err 非空时交给全局错误中间件输出
type rendered struct {
	status   int
	location string // 重定向目标
	text     string
	body     any
	err      error
}

// outcomeError 非成功结果对应的错误
func outcomeError(kind service.OutcomeKind, cause error) error {
	switch kind {
	case service.OutcomeNotFound:
		return apperrors.NotFoundError()
	case service.OutcomeUnauthenticated:
		return apperrors.UnauthenticatedError()
	case service.OutcomeUnauthorized:
		return apperrors.UnauthorizedError()
	default:
		return apperrors.SystemErrorDefault().WithCause(cause)
	}
}

func renderResolve(out service.ResolveOutcome) rendered {
	if out.Kind != service.OutcomeFound {
		return rendered{err: outcomeError(out.Kind, out.Err)}
	}
	return rendered{status: http.StatusFound, location: out.TargetURL}
}

func renderPeek(out service.ResolveOutcome) rendered {
	if out.Kind != service.OutcomeFound {
		return rendered{err: outcomeError(out.Kind, out.Err)}
	}
	return rendered{status: http.StatusOK, text: out.TargetURL}
}

func renderInfo(out service.InfoOutcome, message string) rendered {
	if out.Kind != service.OutcomeFound {
		return rendered{err: outcomeError(out.Kind, out.Err)}
	}
	return rendered{status: http.StatusOK, body: response.OK(out.Info, message)}
}

func renderDelete(out service.DeleteOutcome, message string) rendered {
	if out.Kind != service.OutcomeDeleted {
		return rendered{err: outcomeError(out.Kind, out.Err)}
	}
	return rendered{status: http.StatusOK, body: response.OK[any](nil, message)}
}
