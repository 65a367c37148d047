package service

import "tinylink-go/internal/dto"

// OutcomeKind 解析、详情、删除操作的结果类型
type OutcomeKind int

const (
	OutcomeFound OutcomeKind = iota
	OutcomeNotFound
	OutcomeUnauthenticated
	OutcomeUnauthorized
	OutcomeDeleted
	OutcomeInternal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ResolveOutcome Kind 为 OutcomeFound 时 TargetURL 有效，OutcomeInternal 时 Err 有效
type ResolveOutcome struct {
	Kind      OutcomeKind
	TargetURL string
	Err       error
}

// InfoOutcome Kind 为 OutcomeFound 时 Info 有效
type InfoOutcome struct {
	Kind OutcomeKind
	Info *dto.LinkInfo
	Err  error
}

// DeleteOutcome 删除结果
type DeleteOutcome struct {
	Kind OutcomeKind
	Err  error
}

func resolveInternal(err error) ResolveOutcome {
	return ResolveOutcome{Kind: OutcomeInternal, Err: err}
}

func infoInternal(err error) InfoOutcome {
	return InfoOutcome{Kind: OutcomeInternal, Err: err}
}

func deleteInternal(err error) DeleteOutcome {
	return DeleteOutcome{Kind: OutcomeInternal, Err: err}
}
