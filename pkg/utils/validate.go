package utils

import (
	"fmt"
	"net/url"
	"unicode"

	"tinylink-go/constant"
	"tinylink-go/pkg/base62"
)

// ValidateCode 校验短码是否可能存在（空串或非法字符直接视为不存在）
func ValidateCode(code string) error {
	if code == "" {
		return fmt.Errorf("error.code_required")
	}

	if len(code) > constant.MaxCodeLength || !base62.IsValid(code) {
		return fmt.Errorf("error.code_invalid")
	}

	return nil
}

// ValidateTargetURL 校验目标 URL 的合法性（必须为绝对 URL）
func ValidateTargetURL(targetURL string) error {
	// 1. 检查目标 URL 是否为空
	if targetURL == "" {
		return fmt.Errorf("error.target_url_required")
	}

	// 2. URL 长度限制
	if len(targetURL) > constant.MaxTargetURLLength {
		return fmt.Errorf("error.target_url_max_length")
	}

	if ContainsWhitespace(targetURL) {
		return fmt.Errorf("error.target_url_invalid")
	}

	// 3. URL 格式校验
	parsed, err := url.Parse(targetURL)
	if err != nil || !parsed.IsAbs() {
		return fmt.Errorf("error.target_url_invalid")
	}
	if parsed.Opaque == "" && parsed.Host == "" && parsed.Path == "" {
		return fmt.Errorf("error.target_url_invalid")
	}

	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
