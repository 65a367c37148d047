package utils

import (
	"crypto/rand"
	"math/big"
	"strings"

	"tinylink-go/pkg/base62"
)

var alphabetSize = big.NewInt(int64(len(base62.Alphabet)))

// RandomString 生成指定长度的随机字符串，字符取自短码字符集
func RandomString(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(base62.Alphabet[idx.Int64()])
	}
	return b.String(), nil
}
