package sysprop

import "time"

// deadline 是一次带超时的调用开始时计算好的绝对时间点
//
// 内部重试都从同一个时间点重新计算剩余时间，总等待时间不会超过调用方给的上限。
// time.Now 带有单调时钟读数，不受墙上时钟调整影响。
type deadline struct {
	at  time.Time
	set bool
}

// newDeadline 根据超时计算截止时间，timeout 为负数表示没有截止时间
func newDeadline(timeout time.Duration) deadline {
	if timeout < 0 {
		return deadline{}
	}
	return deadline{at: time.Now().Add(timeout), set: true}
}

// remaining 返回距离截止时间的剩余时长，已过期时返回 0，没有截止时间时返回 Forever
func (d deadline) remaining() time.Duration {
	if !d.set {
		return Forever
	}
	left := time.Until(d.at)
	if left < 0 {
		return 0
	}
	return left
}

func (d deadline) expired() bool {
	return d.set && !time.Now().Before(d.at)
}
