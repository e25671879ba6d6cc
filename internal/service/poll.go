package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openfintools/personalcapital/internal/ports"
)

// errPollExhausted is returned when a poll runs out of attempts. The last
// probe error is wrapped alongside it for diagnosis.
var errPollExhausted = errors.New("poll attempts exhausted")

// pollPolicy is the bounded-retry configuration shared by the browser login
// probes. "Element not present yet" is an expected transient outcome, not an
// error to discard; any other probe error is tolerated the same way unless
// FailFast is set.
type pollPolicy struct {
	Attempts int
	Interval time.Duration
	FailFast bool
}

// poll runs probe up to p.Attempts times, sleeping p.Interval between
// attempts. It returns nil as soon as a probe succeeds. On exhaustion it
// returns errPollExhausted wrapped with the last probe error.
func (p pollPolicy) poll(ctx context.Context, probe func(context.Context) error) error {
	var last error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Interval); err != nil {
				return err
			}
		}

		err := probe(ctx)
		if err == nil {
			return nil
		}
		last = err
		if p.FailFast && !errors.Is(err, ports.ErrElementNotFound) {
			return err
		}
	}
	if last != nil {
		return fmt.Errorf("%w: %w", errPollExhausted, last)
	}
	return errPollExhausted
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
