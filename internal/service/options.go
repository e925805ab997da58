package service

import "time"

// Option customizes a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
