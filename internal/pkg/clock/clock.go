package clock

import (
	"sync"
	"time"
)

// DefaultOffsetHours 参考时区（WIB, UTC+7）
const DefaultOffsetHours = 7

// Clock 提供参考时区下的当前时间，账单生成统一从这里取时间
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Zone 返回固定偏移的参考时区
func Zone(offsetHours int) *time.Location {
	if offsetHours == DefaultOffsetHours {
		return time.FixedZone("WIB", offsetHours*3600)
	}
	return time.FixedZone("", offsetHours*3600)
}

type systemClock struct {
	loc *time.Location
}

// New 创建读取系统时间的时钟
func New(offsetHours int) Clock {
	return &systemClock{loc: Zone(offsetHours)}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Fixed 测试用时钟，时间只在 Set/Advance 时变化
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fixed) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Location()
}

func (c *Fixed) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
