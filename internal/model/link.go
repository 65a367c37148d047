package model

import "time"

type Link struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Code            string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	TargetURL       string    `gorm:"size:2048;not null" json:"targetUrl"`
	Secret          string    `gorm:"size:32;not null" json:"secret"`
	ExpirationHours int       `gorm:"not null;default:1" json:"expirationHours"`
	CreatedAt       time.Time `gorm:"not null;index" json:"createdAt"`

	Clicks []Click `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Peeks  []Peek  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ExpiresAt 过期时间 = 创建时间 + 有效小时数（UTC）
func ExpiresAt(createdAt time.Time, expirationHours int) time.Time {
	return createdAt.UTC().Add(time.Duration(expirationHours) * time.Hour)
}

// IsExpiredAt now >= 过期时间即视为过期
func IsExpiredAt(createdAt time.Time, expirationHours int, now time.Time) bool {
	return !now.Before(ExpiresAt(createdAt, expirationHours))
}

func (l *Link) ExpiresAt() time.Time {
	return ExpiresAt(l.CreatedAt, l.ExpirationHours)
}

func (l *Link) IsExpiredAt(now time.Time) bool {
	return IsExpiredAt(l.CreatedAt, l.ExpirationHours, now)
}
