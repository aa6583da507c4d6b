package recording

import (
	"sync"
	"time"
)

// Scheduler runs fn periodically until the returned stop function is called.
// Stop must be idempotent and safe to call from inside fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler drives callbacks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// a stop issued while fn was running wins over the next tick
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}
