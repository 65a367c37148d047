// Package base62 将自增 ID 编码为短码，并支持反向解码。
//
// 字符集顺序：a-z, A-Z, 0-9，索引 0 对应 'a'。
package base62

import (
	"errors"
	"math"
)

const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const base = uint64(len(Alphabet))

var (
	// ErrInvalidCharacter 输入包含字符集之外的字符
	ErrInvalidCharacter = errors.New("invalid character in base62 string")

	// ErrOverflow 解码结果超出 uint64 范围
	ErrOverflow = errors.New("decoded value exceeds uint64 range")
)

// charToValue 字符到数值的反查表，-1 表示非法字符
var charToValue [256]int

func init() {
	for i := range charToValue {
		charToValue[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		charToValue[Alphabet[i]] = i
	}
}

// Encode 将 id 编码为最短的 base62 字符串
//
// 0 编码为单个零位字符 "a"，保证所有 id（包括 0）都得到非空短码。
func Encode(id uint64) string {
	if id == 0 {
		return Alphabet[:1]
	}

	// 逐位取余，低位在前
	buf := make([]byte, 0, 11)
	for id > 0 {
		buf = append(buf, Alphabet[id%base])
		id /= base
	}

	// 反转为高位在前
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Decode 是 Encode 的逆运算
func Decode(code string) (uint64, error) {
	var result uint64
	for i := 0; i < len(code); i++ {
		value := charToValue[code[i]]
		if value < 0 {
			return 0, ErrInvalidCharacter
		}

		if result > (math.MaxUint64-uint64(value))/base {
			return 0, ErrOverflow
		}
		result = result*base + uint64(value)
	}
	return result, nil
}

// IsValid 判断字符串是否只包含字符集内的字符
func IsValid(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if charToValue[code[i]] < 0 {
			return false
		}
	}
	return true
}
