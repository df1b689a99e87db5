// Package caching keeps short-lived in-process counters.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Counter counts events per key inside a fixed window that starts with the
// first event for that key.
type Counter struct {
	memoryCache *cache.Cache
	window      time.Duration
}

func NewCounter(window time.Duration) *Counter {
	return &Counter{
		memoryCache: cache.New(window, 2*window),
		window:      window,
	}
}

// Hit records one event for key and returns the count within the window.
func (s *Counter) Hit(key string) int {
	if err := s.memoryCache.Add(key, 1, s.window); err == nil {
		return 1
	}
	n, err := s.memoryCache.IncrementInt(key, 1)
	if err != nil {
		// expired between Add and Increment
		s.memoryCache.Set(key, 1, s.window)
		return 1
	}
	return n
}

// Count returns the current count for key without recording an event.
func (s *Counter) Count(key string) int {
	if v, ok := s.memoryCache.Get(key); ok {
		return v.(int)
	}
	return 0
}

func (s *Counter) Reset(key string) {
	s.memoryCache.Delete(key)
}

func (s *Counter) Flush() {
	s.memoryCache.Flush()
}
