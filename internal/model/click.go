package model

import "time"

// Click 一次成功的短链访问，地址只保存加盐哈希
type Click struct {
	ID            uint      `gorm:"primaryKey"`
	LinkID        uint      `gorm:"index;not null"`
	HashedAddress *string   `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// Peek 只查看目标地址、不计入点击统计的访问
type Peek struct {
	ID        uint      `gorm:"primaryKey"`
	LinkID    uint      `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
