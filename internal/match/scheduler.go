package match

import "time"

// Scheduler runs delayed callbacks. The returned function cancels the callback
// and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
	Now() time.Time
}

type clockScheduler struct{}

// NewScheduler - the wall clock scheduler used outside tests.
func NewScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

func (clockScheduler) Now() time.Time {
	return time.Now()
}
