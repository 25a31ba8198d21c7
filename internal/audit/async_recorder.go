package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// AsyncRecorderConfig holds configuration for the async recorder.
type AsyncRecorderConfig struct {
	// Recorder is the underlying recorder the writes are forwarded to.
	Recorder lifecycle.Recorder

	// Logger for dropped-write reporting.
	Logger zerolog.Logger

	// MaxRetries is the number of retry attempts per write (default: 3).
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval (default: 100ms).
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval (default: 5s).
	MaxInterval time.Duration

	// WriteTimeout bounds a single write attempt (default: 5s).
	WriteTimeout time.Duration
}

// AsyncRecorder decorates a Recorder with the fire-and-forget audit
// policy: Record returns nil immediately and the write happens on a
// detached goroutine with bounded retries. A failed write is logged and
// dropped, never surfaced; an admin action is never blocked on audit
// logging. The accepted risk is a status change with no paired audit
// record.
//
// A circuit breaker stops spawning retry work against a store that is
// known to be down; writes attempted while the breaker is open are
// dropped after a single log line.
type AsyncRecorder struct {
	recorder     lifecycle.Recorder
	logger       zerolog.Logger
	breaker      *gobreaker.CircuitBreaker[struct{}]
	maxRetries   uint64
	initial      time.Duration
	maxInterval  time.Duration
	writeTimeout time.Duration

	wg sync.WaitGroup
}

// NewAsyncRecorder creates a new async audit recorder.
func NewAsyncRecorder(cfg AsyncRecorderConfig) *AsyncRecorder {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	initial := cfg.InitialInterval
	if initial == 0 {
		initial = 100 * time.Millisecond
	}
	maxInterval := cfg.MaxInterval
	if maxInterval == 0 {
		maxInterval = 5 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "audit-recorder",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
	})

	return &AsyncRecorder{
		recorder:     cfg.Recorder,
		logger:       cfg.Logger,
		breaker:      breaker,
		maxRetries:   maxRetries,
		initial:      initial,
		maxInterval:  maxInterval,
		writeTimeout: writeTimeout,
	}
}

// Record hands the write to a detached goroutine and returns nil.
// The request context is deliberately not propagated: the audit write
// must outlive the HTTP request that triggered it.
func (a *AsyncRecorder) Record(_ context.Context, change lifecycle.StatusChange) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.write(change)
	}()
	return nil
}

// Wait blocks until all in-flight writes have finished. Used on shutdown
// and in tests.
func (a *AsyncRecorder) Wait() {
	a.wg.Wait()
}

func (a *AsyncRecorder) write(change lifecycle.StatusChange) {
	op := func() error {
		_, err := a.breaker.Execute(func() (struct{}, error) {
			ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
			defer cancel()
			return struct{}{}, a.recorder.Record(ctx, change)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Store is known down; retrying inside this write is pointless.
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.initial
	bo.MaxInterval = a.maxInterval
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithMaxRetries(bo, a.maxRetries)); err != nil {
		a.logger.Error().
			Err(err).
			Str("obstacle_id", change.ObstacleID).
			Str("from", string(change.From)).
			Str("to", string(change.To)).
			Str("actor_id", change.ActorID).
			Msg("dropping audit record after retries")
	}
}

// Ensure AsyncRecorder implements the lifecycle contract.
var _ lifecycle.Recorder = (*AsyncRecorder)(nil)
