package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tinylink-go/pkg/logging"
)

// Decision 准入结果
type Decision int

const (
	Allow Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "reject"
}

// Config 令牌桶参数
type Config struct {
	RefillRate    float64       // 每秒补充的令牌数
	BurstCapacity int           // 桶容量
	StaleAfter    time.Duration // 超过该时长未访问的桶会被清理
	SweepInterval time.Duration // 清理任务执行间隔
}

func (c Config) Validate() error {
	var errs []error
	if c.RefillRate <= 0 {
		errs = append(errs, fmt.Errorf("refill rate must be positive, got %v", c.RefillRate))
	}
	if c.BurstCapacity < 1 {
		errs = append(errs, fmt.Errorf("burst capacity must be at least 1, got %d", c.BurstCapacity))
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("stale after must be positive, got %s", c.StaleAfter))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	return errors.Join(errs...)
}

type bucket struct {
	limiter      *rate.Limiter
	lastRefillAt time.Time
}

// Limiter 按 key 独立计数的令牌桶，桶在首次请求时创建，由定时任务回收
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	cron *cron.Cron
}

// New 配置非法时返回错误，调用方应在启动阶段直接退出
func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}, nil
}

// Allow 使用当前时间检查并消耗一个令牌
func (l *Limiter) Allow(key string) Decision {
	return l.AllowAt(key, l.now())
}

// AllowAt 以 now 为准补充令牌后尝试消耗一个
func (l *Limiter) AllowAt(key string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		// 新桶是满的
		b = &bucket{
			limiter:      rate.NewLimiter(rate.Limit(l.cfg.RefillRate), l.cfg.BurstCapacity),
			lastRefillAt: now,
		}
		l.buckets[key] = b
	}
	if now.After(b.lastRefillAt) {
		b.lastRefillAt = now
	}

	if b.limiter.AllowN(now, 1) {
		return Allow
	}
	return Reject
}

// Sweep 清理过期的桶，返回清理数量
func (l *Limiter) Sweep() int {
	return l.SweepAt(l.now())
}

func (l *Limiter) SweepAt(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastRefillAt) > l.cfg.StaleAfter {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Len 当前桶数量
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Start 启动后台清理任务（独立的 cron 调度器）
func (l *Limiter) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cron != nil {
		return nil
	}

	c := cron.New()
	schedule := "@every " + l.cfg.SweepInterval.String()
	if _, err := c.AddFunc(schedule, func() {
		evicted := l.Sweep()
		remaining := l.Len()
		logging.Logger.Debug("Rate limit sweep finished",
			zap.Int("evicted", evicted),
			zap.Int("remaining", remaining),
		)
	}); err != nil {
		return fmt.Errorf("schedule rate limit sweep: %w", err)
	}
	c.Start()
	l.cron = c

	logging.Logger.Info("Rate limit sweep started", zap.Duration("interval", l.cfg.SweepInterval))
	return nil
}

// Stop 停止清理任务并等待正在执行的清理结束
func (l *Limiter) Stop() {
	l.mu.Lock()
	c := l.cron
	l.cron = nil
	l.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
