//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package retry decides which model submission failures are worth
// repeating and repeats them with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"trpc.group/trpc-go/trpc-itinerary-go/model"
)

// Kind classifies a failure.
type Kind int

const (
	// Fatal failures are surfaced immediately.
	Fatal Kind = iota
	// Transient failures are retried.
	Transient
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == Transient {
		return "transient"
	}
	return "fatal"
}

// Default policy values.
const (
	DefaultInitialInterval = time.Second
	DefaultMaxInterval     = 6 * time.Second
	DefaultMaxAttempts     = 3
)

// Classify maps err to a Kind. Rate limits, timeouts and connection
// failures are transient; caller cancellation and everything else is
// fatal.
func Classify(err error) Kind {
	if err == nil || errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var rspErr *model.ResponseError
	if errors.As(err, &rspErr) {
		if rspErr.Transient() {
			return Transient
		}
		return Fatal
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Fatal
}

// Policy configures Do.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint
	// Notify is called before each wait with the failure and the delay.
	Notify func(err error, wait time.Duration)
}

// DefaultPolicy returns 3 attempts with waits growing from 1s up to 6s.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

// Do runs op until it succeeds, fails fatally, or the attempts run out.
// The last error is returned unwrapped from any backoff bookkeeping.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = DefaultMaxAttempts
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
	}
	if p.Notify != nil {
		opts = append(opts, backoff.WithNotify(p.Notify))
	}
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && Classify(err) == Fatal {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
}
