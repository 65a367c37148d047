package constant

import (
	"fmt"
)

// 常量定义
const (
	BasePrefix = "tinylink:"
	Separator  = ":"
)

// Redis 键模板
const (
	LinkCode = BasePrefix + "link" + Separator + "%s" // tinylink:link:code
)

// GetLinkCodeKey 生成短码缓存 key
func GetLinkCodeKey(code string) string {
	return fmt.Sprintf(LinkCode, code)
}
