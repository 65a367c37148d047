// Package privacy 对客户端地址做加盐单向哈希，数据库中只保存哈希值。
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptySalt 未配置盐值
var ErrEmptySalt = errors.New("privacy salt must not be empty")

// Hash 计算 sha256(salt || data)，返回小写十六进制（固定 64 个字符）
func Hash(salt []byte, data string) string {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Hasher 持有进程级盐值，启动时创建一次，之后只读
type Hasher struct {
	salt []byte
}

// NewHasher 使用配置中的盐值创建 Hasher
func NewHasher(salt string) (*Hasher, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Hasher{salt: []byte(salt)}, nil
}

// HashWithProcessSalt 使用进程级盐值计算哈希
func (h *Hasher) HashWithProcessSalt(data string) string {
	return Hash(h.salt, data)
}

// HashAddress 对客户端地址做哈希；地址未知时返回 nil
func (h *Hasher) HashAddress(addr string) *string {
	if addr == "" {
		return nil
	}
	hashed := h.HashWithProcessSalt(addr)
	return &hashed
}
