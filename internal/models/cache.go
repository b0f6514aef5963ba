package models

import "time"

// CacheEntry wraps cached data with its write time and absolute expiry, both epoch ms.
type CacheEntry[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
	ExpireAt  int64 `json:"expireAt"`
}

// NewCacheEntry stamps data at now with the given time-to-live.
func NewCacheEntry[T any](data T, now time.Time, ttl time.Duration) CacheEntry[T] {
	return CacheEntry[T]{
		Data:      data,
		Timestamp: now.UnixMilli(),
		ExpireAt:  now.Add(ttl).UnixMilli(),
	}
}

// Valid reports whether the entry is still fresh at now (now <= expireAt).
func (c CacheEntry[T]) Valid(now time.Time) bool {
	return now.UnixMilli() <= c.ExpireAt
}

// CacheStatus describes an entry without returning or mutating it.
type CacheStatus struct {
	Present   bool  `json:"present"`
	Valid     bool  `json:"isValid"`
	Timestamp int64 `json:"timestamp,omitempty"`
	ExpireAt  int64 `json:"expireAt,omitempty"`
}
