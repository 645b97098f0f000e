package onboarding

import (
	"sync"
	"time"
)

// Countdown is a cancellable whole-second timer gating the MPIN resend.
// A goroutine decrements the counter once per interval and exits as soon as
// the counter reaches zero or the countdown is cancelled.
type Countdown struct {
	mu        sync.Mutex
	total     int
	remaining int
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
	cancelled bool
}

// StartCountdown starts ticking from seconds, one step per interval.
func StartCountdown(seconds int, interval time.Duration) *Countdown {
	c := &Countdown{total: seconds, remaining: seconds, interval: interval}
	c.mu.Lock()
	c.launch()
	c.mu.Unlock()
	return c
}

// Remaining returns the whole seconds left before resend is allowed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the counter reached zero, i.e. resend is enabled.
func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// Active reports whether a ticking goroutine is still outstanding.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Reset rewinds the counter to its starting value and restarts ticking.
// It is a no-op after Cancel.
func (c *Countdown) Reset() {
	c.halt()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.remaining = c.total
	c.launch()
}

// Cancel stops the ticking goroutine and waits for it to exit. It is safe
// to call more than once.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
	c.halt()
}

// launch must be called with mu held.
func (c *Countdown) launch() {
	if c.remaining == 0 {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.stop, c.done)
}

func (c *Countdown) halt() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Countdown) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick() == 0 {
				return
			}
		}
	}
}

func (c *Countdown) tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}
