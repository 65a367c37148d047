package constant

import "time"

// 短链限制
const (
	MinExpirationHours     = 1
	MaxExpirationHours     = 24 * 30
	DefaultExpirationHours = 1

	SecretLength       = 32
	MaxCodeLength      = 64
	MaxTargetURLLength = 2048

	// PlaceholderPrefix 不在短码字符集内，占位短码永远不会与真实短码冲突
	PlaceholderPrefix = "~"

	// RecentHistoryWindow 详情接口返回的最近点击时间范围
	RecentHistoryWindow = 7 * 24 * time.Hour
)

// HTTP 头
const (
	LinkSecretHeader = "X-Link-Secret"
	RequestIDHeader  = "X-Request-ID"
)

// 错误位置哨兵
const (
	LocationInternal = ":internal:"
	LocationAll      = ":all:"
	LocationClient   = ":client:"
)
