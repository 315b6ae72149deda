// Package clock provides the injectable time source used by subscription
// arithmetic and signal timestamps.
package clock

import "time"

type SystemClock struct{}

func New() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

func (SystemClock) NowTime() time.Time {
	return time.Now()
}
