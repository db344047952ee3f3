// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package breaker guards calls to the activity, graph and profile stores with a
// per-call timeout and a gobreaker circuit breaker, and classifies failures into
// feederr codes so the engines can propagate them unchanged.
package breaker

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/logging"
	"github.com/tomtom215/placefeed/internal/metrics"
)

// Config configures one breaker.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32

	// CallTimeout bounds each guarded call. Zero leaves the caller's deadline alone.
	CallTimeout time.Duration
}

// Breaker is a named circuit breaker with a call timeout.
type Breaker struct {
	name        string
	cb          *gobreaker.CircuitBreaker[any]
	callTimeout time.Duration
}

// New creates a breaker that trips after FailureThreshold consecutive failures.
// Domain outcomes (not found, invalid argument) and caller cancellations do not
// count as failures.
func New(cfg Config) *Breaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return &Breaker{
		name:        cfg.Name,
		cb:          gobreaker.NewCircuitBreaker[any](settings),
		callTimeout: cfg.CallTimeout,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch feederr.CodeOf(err) {
	case feederr.CodeNotFound, feederr.CodeInvalidArgument, feederr.CodePermissionDenied:
		return true
	}
	return false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Do runs fn under the breaker and call timeout and classifies its error.
// op names the operation for metrics and error messages.
func Do[T any](ctx context.Context, b *Breaker, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	callCtx := ctx
	if b.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := b.cb.Execute(func() (any, error) {
		return fn(callCtx)
	})
	err = classify(err, b.name, op)
	code := ""
	if err != nil {
		code = string(feederr.CodeOf(err))
	}
	metrics.RecordStoreCall(b.name, op, code, time.Since(start))
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok && res != nil {
		return zero, feederr.Internal(nil, "%s %s returned %T", b.name, op, res)
	}
	return v, nil
}

func classify(err error, name, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return feederr.Unavailable(err, "%s store unavailable (%s)", name, op)
	}
	return feederr.FromContext(err, name+" "+op)
}
