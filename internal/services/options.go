package services

import (
	"math/rand/v2"
	"time"
)

type options struct {
	now      func() time.Time
	intN     func(n int) int
	notifier Notifier
	archiver ReportArchiver
}

// Option customizes a service
type Option func(*options)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIntN overrides the random source used for meetup suggestions
func WithIntN(fn func(n int) int) Option {
	return func(o *options) {
		o.intN = fn
	}
}

// WithNotifier sets where async match events are delivered
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithArchiver sets where filed reports are archived
func WithArchiver(a ReportArchiver) Option {
	return func(o *options) {
		o.archiver = a
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		intN:     rand.IntN,
		notifier: nopNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
